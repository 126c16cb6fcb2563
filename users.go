package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/metrics"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/session"
)

// newCreateUserCmd provisions accounts from the command line, which is how
// admins are created when the first-run bootstrap is disabled.
func newCreateUserCmd() *cobra.Command {
	var (
		password string
		isAdmin  bool
	)

	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			authService := services.NewAuthService(
				repositories.NewGORMUserRepository(db),
				session.NewManager(cfg.Session.Secret, cfg.Session.TTL),
				metrics.New(),
			)
			user, err := authService.CreateUser(args[0], password, isAdmin)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %s, admin=%t)\n", user.Username, user.ID, user.IsAdmin)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password for the new account")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant admin privileges")
	return cmd
}
