// Package server exposes the dashboard API over HTTP: session-gated access
// to leads, merchants, users, and the KPI dashboard.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pililokal/merchant-ops/internal/auth"
	"github.com/pililokal/merchant-ops/internal/config"
	"github.com/pililokal/merchant-ops/internal/mail"
	"github.com/pililokal/merchant-ops/internal/model"
	"github.com/pililokal/merchant-ops/internal/store"
)

type Server struct {
	store        store.Store
	sealer       *auth.Sealer
	mailer       *mail.Sender
	cfg          config.ServerConfig
	workbookPath string
	loginLimiter *ipLimiter
}

func New(st store.Store, sealer *auth.Sealer, mailer *mail.Sender, cfg config.ServerConfig, workbookPath string) *Server {
	perMin := cfg.LoginRatePerMin
	if perMin <= 0 {
		perMin = 10
	}
	return &Server{
		store:        st,
		sealer:       sealer,
		mailer:       mailer,
		cfg:          cfg,
		workbookPath: workbookPath,
		loginLimiter: newIPLimiter(perMin),
	}
}

// Router builds the full route tree. Reads require VIEWER, mutations
// EDITOR, user administration ADMIN.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(s.withSession)

	r.Route("/api", func(r chi.Router) {
		r.With(s.limitLogin).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		// Reads.
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(model.RoleViewer))
			r.Get("/me", s.handleMe)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/leads", s.handleListLeads)
			r.Get("/leads/{id}", s.handleGetLead)
			r.Get("/merchants", s.handleListMerchants)
			r.Get("/merchants/{id}", s.handleGetMerchant)
			r.Get("/merchants/{id}/activity", s.handleListActivity)
		})

		// Mutations.
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(model.RoleEditor))
			r.Post("/leads/import", s.handleImportLeads)
			r.Patch("/leads/{id}", s.handlePatchLead)
			r.Post("/leads/{id}/convert", s.handleConvertLead)
			r.Delete("/leads/{id}", s.handleDeleteLead)
			r.Post("/leads/bulk/convert", s.handleBulkConvert)

			r.Post("/merchants", s.handleCreateMerchant)
			r.Put("/merchants/{id}", s.handleUpdateMerchant)
			r.Delete("/merchants/{id}", s.handleDeleteMerchant)
			r.Post("/merchants/{id}/status", s.handleMerchantStatus)
			r.Post("/merchants/{id}/notes", s.handleMerchantNote)
			r.Post("/export/merchants", s.handleExportMerchants)
		})

		// User administration.
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(model.RoleAdmin))
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Post("/users/{id}/role", s.handleUserRole)
			r.Post("/users/{id}/toggle", s.handleUserToggle)
			r.Post("/users/{id}/reset-password", s.handleUserResetPassword)
		})
	})

	return r
}
