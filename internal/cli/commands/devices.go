package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mywatt/dashboard/internal/api"
	"github.com/mywatt/dashboard/internal/cli/auth"
)

// NewDevicesCmd creates the devices command group. All subcommands require an
// admin token; the backend rejects device-scoped tokens.
func NewDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage metering devices",
	}

	cmd.AddCommand(newDevicesListCmd())
	cmd.AddCommand(newDevicesAddCmd())
	cmd.AddCommand(newDevicesRemoveCmd())
	cmd.AddCommand(newDevicesResetPasswordCmd())

	return cmd
}

func newDevicesListCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesList(apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend URL (or set MYWATT_API_URL)")

	return cmd
}

func runDevicesList(apiURL string) error {
	url, client, token, err := adminSession(apiURL)
	if err != nil {
		return err
	}

	devices, err := client.ListDevices(context.Background(), token)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nProvision one with: mywatt devices add <device-name>")
		return nil
	}

	fmt.Printf("Devices on %s:\n\n", url)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED AT\tTEMP PASSWORD")
	fmt.Fprintln(w, "──\t────\t──────────\t─────────────")

	for _, device := range devices {
		pending := ""
		if device.ForcePasswordChange {
			pending = "pending change"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			device.DeviceID,
			device.DeviceName,
			device.CreatedAt,
			pending,
		)
	}

	w.Flush()

	return nil
}

func newDevicesAddCmd() *cobra.Command {
	var apiURL, password string

	cmd := &cobra.Command{
		Use:   "add <device-name>",
		Short: "Provision a new device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesAdd(apiURL, args[0], password)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend URL (or set MYWATT_API_URL)")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (a temporary one is generated if omitted)")

	return cmd
}

func runDevicesAdd(apiURL, deviceName, password string) error {
	_, client, token, err := adminSession(apiURL)
	if err != nil {
		return err
	}

	creds, err := client.CreateDevice(context.Background(), token, deviceName, password)
	if err != nil {
		return err
	}

	fmt.Println("✓ Device created.")
	printCredentials(creds)

	return nil
}

func newDevicesRemoveCmd() *cobra.Command {
	var apiURL string
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:     "rm <device-id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a device and all of its data",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesRemove(apiURL, args[0], skipConfirm)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend URL (or set MYWATT_API_URL)")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runDevicesRemove(apiURL, deviceID string, skipConfirm bool) error {
	_, client, token, err := adminSession(apiURL)
	if err != nil {
		return err
	}

	if !skipConfirm {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete device %s and all of its readings", deviceID),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := client.DeleteDevice(context.Background(), token, deviceID); err != nil {
		return err
	}

	fmt.Printf("✓ Device %s deleted.\n", deviceID)
	return nil
}

func newDevicesResetPasswordCmd() *cobra.Command {
	var apiURL string
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "reset-password <device-id>",
		Short: "Issue a new temporary password for a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesResetPassword(apiURL, args[0], skipConfirm)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend URL (or set MYWATT_API_URL)")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runDevicesResetPassword(apiURL, deviceID string, skipConfirm bool) error {
	_, client, token, err := adminSession(apiURL)
	if err != nil {
		return err
	}

	if !skipConfirm {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Reset the password for device %s", deviceID),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
	}

	creds, err := client.ResetDevicePassword(context.Background(), token, deviceID)
	if err != nil {
		return err
	}

	fmt.Println("✓ Password reset.")
	printCredentials(creds)

	return nil
}

// adminSession resolves the backend URL, builds a client and loads the stored token
func adminSession(apiURL string) (string, *api.Client, string, error) {
	url, err := resolveAPIURL(apiURL)
	if err != nil {
		return "", nil, "", err
	}

	token, err := auth.Default.LoadToken(url)
	if err != nil {
		return "", nil, "", err
	}

	return url, newAPIClient(url), token, nil
}

func printCredentials(creds *api.DeviceCredentials) {
	fmt.Printf("  Device ID: %s\n", creds.DeviceID)
	fmt.Printf("  Device name: %s\n", creds.DeviceName)
	if creds.TempPassword != "" {
		fmt.Printf("  Temporary password: %s\n", creds.TempPassword)
		fmt.Println("  Share these with the device owner. The password must be changed on first login.")
	}
}
