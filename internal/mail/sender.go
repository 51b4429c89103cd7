package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"

	"github.com/pililokal/merchant-ops/internal/config"
	"github.com/pililokal/merchant-ops/internal/resilience"
)

// Sender delivers account emails over SMTP. Callers treat delivery failure
// as a soft error: the account operation succeeds and the temp password is
// surfaced to the admin instead.
type Sender struct {
	cfg config.MailConfig
}

func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Enabled reports whether SMTP is configured at all. With no host set,
// sends are skipped rather than failed.
func (s *Sender) Enabled() bool {
	return s.cfg.Host != ""
}

var inviteTmpl = template.Must(template.New("invite").Parse(`Hi {{.Name}},

You have been invited to {{.AppName}}.

Sign in at {{.AppURL}} with:

  Email:    {{.Email}}
  Password: {{.TempPassword}}

Please change your password after your first login.
`))

var resetTmpl = template.Must(template.New("reset").Parse(`Hi {{.Name}},

Your {{.AppName}} password has been reset by an administrator.

Sign in at {{.AppURL}} with your new temporary password:

  {{.TempPassword}}

Please change it after logging in.
`))

type accountEmailData struct {
	Name         string
	Email        string
	TempPassword string
	AppName      string
	AppURL       string
}

// SendInvite emails a newly invited user their temporary credentials.
func (s *Sender) SendInvite(name, email, tempPassword string) error {
	subject := fmt.Sprintf("You've been invited to %s", s.cfg.AppName)
	return s.send(inviteTmpl, subject, name, email, tempPassword)
}

// SendPasswordReset emails a user their admin-issued temporary password.
func (s *Sender) SendPasswordReset(name, email, tempPassword string) error {
	subject := fmt.Sprintf("%s password reset", s.cfg.AppName)
	return s.send(resetTmpl, subject, name, email, tempPassword)
}

func (s *Sender) send(tmpl *template.Template, subject, name, email, tempPassword string) error {
	if !s.Enabled() {
		return eris.New("mail: smtp not configured")
	}

	var body bytes.Buffer
	err := tmpl.Execute(&body, accountEmailData{
		Name:         name,
		Email:        email,
		TempPassword: tempPassword,
		AppName:      s.cfg.AppName,
		AppURL:       s.cfg.AppURL,
	})
	if err != nil {
		return eris.Wrap(err, "mail: render template")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body.String())

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("smtp send")
	err = resilience.Do(context.Background(), retryCfg, func(context.Context) error {
		return d.DialAndSend(m)
	})
	if err != nil {
		return eris.Wrap(err, "mail: send")
	}
	return nil
}
