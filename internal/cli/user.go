package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User record commands",
	}

	cmd.AddCommand(newUserStoreCmd())
	cmd.AddCommand(newUserAddEmailCmd())
	cmd.AddCommand(newUserSaveCmd())

	return cmd
}

func newUserStoreCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Store a user record",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"username": username,
				"email":    email,
				"password": password,
			}
			return postMessage(cmd, "/store", req)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}

func newUserAddEmailCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "add-email",
		Short: "Store a record holding only an email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			return postMessage(cmd, "/addemail", map[string]string{"email": email})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserSaveCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save user data from the settings page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postMessage(cmd, "/save-user-data", map[string]string{"email": email})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")

	return cmd
}

func postMessage(cmd *cobra.Command, path string, req any) error {
	var result MessageResult

	if err := client.Post(path, req, &result); err != nil {
		return err
	}

	NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
	return nil
}
