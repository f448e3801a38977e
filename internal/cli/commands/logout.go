package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mywatt/dashboard/internal/cli/auth"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored authentication token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend URL (or set MYWATT_API_URL)")

	return cmd
}

func runLogout(apiURL string) error {
	url, err := resolveAPIURL(apiURL)
	if err != nil {
		return err
	}

	if err := auth.Default.DeleteToken(url); err != nil {
		return err
	}

	fmt.Println("✓ Logged out.")
	return nil
}
