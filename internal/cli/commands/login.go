package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mywatt/dashboard/internal/api"
	"github.com/mywatt/dashboard/internal/cli/auth"
	"github.com/mywatt/dashboard/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password, apiURL string
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a MyWatt backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(username, password, apiURL, isAdmin)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set MYWATT_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set MYWATT_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend URL (or set MYWATT_API_URL)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Authenticate as an admin account")

	return cmd
}

func runLogin(username, password, apiURL string, isAdmin bool) error {
	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = os.Getenv("MYWATT_USERNAME")
	}
	if password == "" {
		password = os.Getenv("MYWATT_PASSWORD")
	}

	if username == "" {
		return fmt.Errorf("username is required (use --username flag or MYWATT_USERNAME env var)")
	}

	url, err := resolveAPIURL(apiURL)
	if err != nil {
		return err
	}

	if password == "" {
		password, err = promptPassword("Password")
		if err != nil {
			return err
		}
	}

	fmt.Printf("Logging in to %s...\n", url)

	result, err := loginAndStore(auth.Default, newAPIClient(url), url, username, password, isAdmin)
	if err != nil {
		return err
	}

	// Remember the backend and account for subsequent commands
	if err := userconfig.Save(&userconfig.UserConfig{APIURL: url, Username: username}); err != nil {
		fmt.Printf("Warning: failed to save user config: %v\n", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  Account: %s (%s)\n", username, result.UserType)
	if result.ForcePasswordChange {
		fmt.Println("  Note: this account has a temporary password. Change it in the dashboard before it can be used normally.")
	}

	return nil
}

// loginAndStore performs the login request and persists the token
func loginAndStore(store auth.TokenStore, client *api.Client, apiURL, username, password string, isAdmin bool) (*api.LoginResult, error) {
	result, err := client.Login(context.Background(), username, password, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if err := store.SaveToken(apiURL, result.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	return result, nil
}
