package main

import (
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalog sent to the model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.closer()

		catalog := a.registry.Describe(a.cfg.Agent.ToolCallSyntax())
		if catalog == "" {
			printf(cmd, "No tools are registered, configure database.dsn to enable the CRM tools.\n")
			return nil
		}
		printf(cmd, "%s\n", catalog)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
