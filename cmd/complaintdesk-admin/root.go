package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acadly/complaintdesk/internal/bootstrap"
)

// newRootCmd creates the root command for the admin CLI.
func newRootCmd(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complaintdesk-admin",
		Short: "Operate a complaintdesk deployment",
		Long: `Administrative tasks for complaintdesk: schema migrations, development
seeding, account management, session revocation and data verification.

Configuration is read from the same environment variables as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return cmdCtx.load()
		},
	}

	cmd.AddCommand(newMigrateCmd(cmdCtx))
	cmd.AddCommand(newSeedCmd(cmdCtx))
	cmd.AddCommand(newVerifyCmd(cmdCtx))
	cmd.AddCommand(newUserCmd(cmdCtx))
	cmd.AddCommand(newSessionsCmd(cmdCtx))

	return cmd
}

func (c *commandContext) load() error {
	if c.loadConfig == nil {
		return nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.Config = cfg
	logger, err := bootstrap.ConfigureLogger(&c.Config)
	if err != nil {
		return err
	}
	c.Logger = logger
	return nil
}
