package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/njprem/web-starter-api/internal/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "web-starter-api - accounts and sessions over HTTP",
		Long: `web-starter-api serves user registration, login and bearer sessions
backed by PostgreSQL. Configuration is read from the environment and .env.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCleanupSessionsCmd())

	return cmd
}

// loadConfig turns a missing required variable into an error instead of a
// panic so commands exit with a message.
func loadConfig() (cfg config.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("CONFIG_INVALID").Errorf("%s", fmt.Sprint(r))
		}
	}()
	return config.Get(), nil
}
