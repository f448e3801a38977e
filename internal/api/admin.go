package api

import (
	"context"
	"fmt"
	"net/http"
)

// Device represents a metering device as listed by the backend
type Device struct {
	DeviceID            string `json:"device_id"`
	DeviceName          string `json:"device_name"`
	CreatedAt           string `json:"created_at"`
	ForcePasswordChange bool   `json:"force_password_change"`
}

// CreateDeviceRequest represents the device provisioning request body
type CreateDeviceRequest struct {
	DeviceName string `json:"device_name"`
	Password   string `json:"password"`
}

// DeviceCredentials is returned when a device is provisioned or its password
// is reset; TempPassword is shown once and never stored.
type DeviceCredentials struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	TempPassword string `json:"temp_password"`
}

// CreateAdminRequest represents the admin bootstrap request body
type CreateAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminAccount is returned by CreateAdmin
type AdminAccount struct {
	AdminID  string `json:"admin_id"`
	Username string `json:"username"`
}

// ListDevices returns all provisioned devices. Requires an admin-scoped token;
// authorization is enforced by the backend.
func (c *Client) ListDevices(ctx context.Context, token string) ([]Device, error) {
	var devices []Device
	if err := c.do(ctx, http.MethodGet, "/admin/devices", token, nil, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// CreateDevice provisions a new metering device. When password is empty the
// backend generates a temporary one and sets the force-password-change flag.
func (c *Client) CreateDevice(ctx context.Context, token, deviceName, password string) (*DeviceCredentials, error) {
	req := CreateDeviceRequest{
		DeviceName: deviceName,
		Password:   password,
	}

	var creds DeviceCredentials
	if err := c.do(ctx, http.MethodPost, "/admin/devices", token, nil, req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// DeleteDevice removes a device and all of its data
func (c *Client) DeleteDevice(ctx context.Context, token, deviceID string) error {
	path := fmt.Sprintf("/admin/devices/%s", deviceID)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil, nil)
}

// ResetDevicePassword issues a new temporary password for a device
func (c *Client) ResetDevicePassword(ctx context.Context, token, deviceID string) (*DeviceCredentials, error) {
	path := fmt.Sprintf("/admin/devices/%s/reset-password", deviceID)

	var creds DeviceCredentials
	if err := c.do(ctx, http.MethodPut, path, token, nil, nil, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// CreateAdmin bootstraps an admin account. The backend only allows this while
// no admin exists yet.
func (c *Client) CreateAdmin(ctx context.Context, username, password string) (*AdminAccount, error) {
	req := CreateAdminRequest{
		Username: username,
		Password: password,
	}

	var account AdminAccount
	if err := c.do(ctx, http.MethodPost, "/admin/create-admin", "", nil, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
