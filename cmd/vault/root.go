package main

import (
	"github.com/spf13/cobra"
)

// cli carries the state shared between the root command and its
// subcommands.
type cli struct {
	configPath string
	app        *app
}

func (c *cli) current() *app {
	return c.app
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vault",
		Short:         "Operate the custodial vault program against a ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}

			c.app, err = newApp(cmd.Context(), conf)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "config.yaml", "configuration file path")

	rootCmd.AddCommand(
		newFundCmd(c.current),
		newInitVaultCmd(c.current),
		newDepositCmd(c.current),
		newWithdrawCmd(c.current),
		newUserInfoCmd(c.current),
		newPoolCmd(c.current),
		newMonitorCmd(c.current),
		newKeygenCmd(),
	)

	return rootCmd
}
