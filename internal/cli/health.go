package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/health", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGreetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "greet",
		Short: "Show who the current session belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := client.GetText("/greet")
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(GreetResult{Greeting: text})
			return nil
		},
	}
}
