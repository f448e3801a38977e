package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewCreateAdminCmd creates the create-admin command. The backend only allows
// this bootstrap while no admin account exists yet.
func NewCreateAdminCmd() *cobra.Command {
	var apiURL, password string

	cmd := &cobra.Command{
		Use:   "create-admin <username>",
		Short: "Bootstrap the first admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(apiURL, args[0], password)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend URL (or set MYWATT_API_URL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set MYWATT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runCreateAdmin(apiURL, username, password string) error {
	url, err := resolveAPIURL(apiURL)
	if err != nil {
		return err
	}

	if password == "" {
		password = os.Getenv("MYWATT_PASSWORD")
	}
	if password == "" {
		password, err = promptPassword("Password")
		if err != nil {
			return err
		}
	}

	account, err := newAPIClient(url).CreateAdmin(context.Background(), username, password)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Println("✓ Admin account created.")
	fmt.Printf("  Admin ID: %s\n", account.AdminID)
	fmt.Printf("  Username: %s\n", account.Username)
	fmt.Println("\nSign in with: mywatt login --admin --username " + account.Username)

	return nil
}
