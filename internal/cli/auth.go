package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Provider sign-in commands",
	}

	cmd.AddCommand(newAuthURLCmd())

	return cmd
}

func newAuthURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <provider>",
		Short: "Print the provider authorization URL without following it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]

			location, err := client.Location("/auth/" + url.PathEscape(provider))
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(AuthURLResult{Provider: provider, URL: location})
			return nil
		},
	}
}
