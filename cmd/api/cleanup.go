package main

import (
	"github.com/spf13/cobra"
)

// NewCleanupSessionsCmd deletes expired and revoked sessions. It is meant to
// be run from cron or a scheduled job; the server never prunes on its own.
func NewCleanupSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-sessions",
		Short: "Delete expired and revoked sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.sessions.CleanupExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("deleted %d sessions\n", n)
			return nil
		},
	}
}
