package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/mywatt/dashboard/internal/api"
	"github.com/mywatt/dashboard/internal/cli/userconfig"
)

const defaultAPIURL = "http://localhost:8000"

// resolveAPIURL determines which backend to talk to based on the following priority:
// 1. The --api-url flag
// 2. The MYWATT_API_URL environment variable
// 3. The URL saved in the user config by a previous login
// 4. The default local backend
func resolveAPIURL(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("MYWATT_API_URL"); env != "" {
		return env, nil
	}

	saved, err := userconfig.GetAPIURL()
	if err != nil {
		return "", fmt.Errorf("failed to load user config: %w", err)
	}
	if saved != "" {
		return saved, nil
	}

	return defaultAPIURL, nil
}

// newAPIClient creates an API client for CLI use. Commands report errors
// directly, so the client gets a disabled logger.
func newAPIClient(apiURL string) *api.Client {
	return api.New(apiURL, zerolog.Nop())
}

// promptPassword reads a password without echo when stdin is a terminal
func promptPassword(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or MYWATT_PASSWORD env var)")
	}

	fmt.Printf("%s: ", label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println() // New line after password input

	return string(bytePassword), nil
}
