package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/auth"
	"github.com/pililokal/merchant-ops/internal/model"
	"github.com/pililokal/merchant-ops/internal/store"
)

var (
	seedName     string
	seedEmail    string
	seedPassword string
)

// seedCmd bootstraps the first admin account. If the email already exists
// the password and role are updated in place, so a lost admin password can
// be recovered from the terminal.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or update the initial admin account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		hash, err := auth.HashPassword(seedPassword)
		if err != nil {
			return err
		}

		existing, err := st.GetUserByEmail(ctx, seedEmail)
		switch {
		case err == nil:
			if err := st.SetUserPassword(ctx, existing.ID, hash); err != nil {
				return err
			}
			if err := st.UpdateUserRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return err
			}
			if err := st.SetUserActive(ctx, existing.ID, true); err != nil {
				return err
			}
			zap.L().Info("admin account updated", zap.String("email", seedEmail))
		case eris.Is(err, store.ErrNotFound):
			u := &model.User{
				Name:         seedName,
				Email:        seedEmail,
				PasswordHash: hash,
				Role:         model.RoleAdmin,
			}
			if _, err := st.CreateUser(ctx, u); err != nil {
				return err
			}
			zap.L().Info("admin account created", zap.String("email", seedEmail))
		default:
			return err
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedName, "name", "Admin", "admin display name")
	seedCmd.Flags().StringVar(&seedEmail, "email", "", "admin email (required)")
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "admin password (required)")
	_ = seedCmd.MarkFlagRequired("email")
	_ = seedCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(seedCmd)
}
