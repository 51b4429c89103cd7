package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/auth"
	"github.com/pililokal/merchant-ops/internal/mail"
	"github.com/pililokal/merchant-ops/internal/model"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := st.ListUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			state := "active"
			if !u.IsActive {
				state = "deactivated"
			}
			fmt.Printf("%-36s  %-8s  %-11s  %s <%s>\n", u.ID, u.Role, state, u.Name, u.Email)
		}
		return nil
	},
}

var (
	inviteName  string
	inviteEmail string
	inviteRole  string
)

var usersInviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Invite a new account with a temporary password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tempPassword, err := auth.TempPassword()
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(tempPassword)
		if err != nil {
			return err
		}

		u := &model.User{
			Name:         inviteName,
			Email:        inviteEmail,
			PasswordHash: hash,
			Role:         model.ParseRole(inviteRole),
		}
		created, err := st.CreateUser(ctx, u)
		if err != nil {
			return err
		}

		mailer := mail.NewSender(cfg.Mail)
		if err := mailer.SendInvite(created.Name, created.Email, tempPassword); err != nil {
			zap.L().Warn("invite email not sent", zap.Error(err))
			fmt.Printf("invited %s (%s); email failed, temporary password: %s\n",
				created.Email, created.Role, tempPassword)
			return nil
		}
		fmt.Printf("invited %s (%s); credentials emailed\n", created.Email, created.Role)
		return nil
	},
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <user-id>",
	Short: "Deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetUserActive(ctx, args[0], false); err != nil {
			return err
		}
		zap.L().Info("account deactivated", zap.String("user_id", args[0]))
		return nil
	},
}

func init() {
	usersInviteCmd.Flags().StringVar(&inviteName, "name", "", "display name (required)")
	usersInviteCmd.Flags().StringVar(&inviteEmail, "email", "", "email (required)")
	usersInviteCmd.Flags().StringVar(&inviteRole, "role", "VIEWER", "role: ADMIN, EDITOR, or VIEWER")
	_ = usersInviteCmd.MarkFlagRequired("name")
	_ = usersInviteCmd.MarkFlagRequired("email")

	usersCmd.AddCommand(usersListCmd, usersInviteCmd, usersDeactivateCmd)
	rootCmd.AddCommand(usersCmd)
}
