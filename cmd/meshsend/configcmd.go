package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meshsend/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write a default configuration file",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.CreateDefault(a.configPath); err != nil {
					return &configError{err: err}
				}
				fmt.Fprintln(a.stdout, "Configuration written to", a.configPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  noArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(a.stdout, a.configPath)
			},
		},
	)
	return cmd
}
