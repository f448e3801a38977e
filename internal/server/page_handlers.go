package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mywatt/dashboard/internal/api"
	"github.com/mywatt/dashboard/internal/session"
)

// RateForm represents the settings rate update submission
type RateForm struct {
	NewRate float64 `form:"new_rate" binding:"required,gt=0"`
}

// deviceID scopes a data call: device users always see their own device,
// admins must name one explicitly.
func deviceID(c *gin.Context, sess *session.Session) string {
	if sess.UserType == session.UserTypeDevice {
		return sess.UserID
	}
	return c.Query("device_id")
}

func (s *Server) showHome(c *gin.Context) {
	sess, _ := CurrentSession(c)

	// Admins have no usage data of their own, but may inspect a device
	device := deviceID(c, sess)
	if sess.IsAdmin() && device == "" {
		c.Redirect(http.StatusFound, adminHomeRoute)
		return
	}

	ctx := c.Request.Context()

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Session":        sess,
		"CurrentUsage":   s.apiClient.CurrentUsage(ctx, sess.Token, device),
		"CurrentRate":    s.apiClient.CurrentRate(ctx, sess.Token, device),
		"CurrentVoltage": s.apiClient.CurrentVoltage(ctx, sess.Token, device),
		"TodayUsage":     s.apiClient.GetTodayUsage(ctx, sess.Token, device),
		"DailyTrends":    s.apiClient.DailyTrends(ctx, sess.Token, device, api.DefaultTrendDays),
		"BillingHistory": s.apiClient.MonthlyBillingHistory(ctx, sess.Token, device),
	})
}

func (s *Server) showDaily(c *gin.Context) {
	sess, _ := CurrentSession(c)
	c.HTML(http.StatusOK, "daily.html", gin.H{"Session": sess})
}

func (s *Server) showWeekly(c *gin.Context) {
	sess, _ := CurrentSession(c)
	c.HTML(http.StatusOK, "weekly.html", gin.H{"Session": sess})
}

func (s *Server) showMonthly(c *gin.Context) {
	sess, _ := CurrentSession(c)
	c.HTML(http.StatusOK, "monthly.html", gin.H{"Session": sess})
}

func (s *Server) showYearly(c *gin.Context) {
	sess, _ := CurrentSession(c)
	c.HTML(http.StatusOK, "yearly.html", gin.H{"Session": sess})
}

func (s *Server) showSettings(c *gin.Context) {
	sess, _ := CurrentSession(c)

	c.HTML(http.StatusOK, "settings.html", gin.H{
		"Session":     sess,
		"CurrentRate": s.apiClient.CurrentRate(c.Request.Context(), sess.Token, sess.UserID),
	})
}

func (s *Server) updateRate(c *gin.Context) {
	sess, _ := CurrentSession(c)

	render := func(statusCode int, fields gin.H) {
		fields["Session"] = sess
		fields["CurrentRate"] = s.apiClient.CurrentRate(c.Request.Context(), sess.Token, sess.UserID)
		c.HTML(statusCode, "settings.html", fields)
	}

	// Rate validity is checked before any network call
	var form RateForm
	if err := c.ShouldBind(&form); err != nil {
		render(http.StatusBadRequest, gin.H{
			"Error": "Please enter a valid rate (must be greater than 0).",
		})
		return
	}

	update, err := s.apiClient.UpdateRate(c.Request.Context(), sess.Token, sess.UserID, form.NewRate)
	if err != nil {
		s.logger.Error().Err(err).Msg("Rate update failed")
		render(http.StatusBadGateway, gin.H{
			"Error": "Failed to update rate. Please try again later.",
		})
		return
	}

	render(http.StatusOK, gin.H{
		"Success": true,
		"NewRate": update.NewRate,
	})
}

// AdminDashboard handlers

// DeviceForm represents the device provisioning form submission
type DeviceForm struct {
	DeviceName string `form:"device_name" binding:"required,alphanumdash"`
	Password   string `form:"password"`
}

// renderAdminDashboard renders the device list plus any outcome of the action
// that just ran
func (s *Server) renderAdminDashboard(c *gin.Context, statusCode int, fields gin.H) {
	sess, _ := CurrentSession(c)

	devices, err := s.apiClient.ListDevices(c.Request.Context(), sess.Token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list devices")
		if _, set := fields["Error"]; !set {
			fields["Error"] = "Failed to fetch devices"
		}
	}

	fields["Session"] = sess
	fields["Devices"] = devices
	c.HTML(statusCode, "admin_dashboard.html", fields)
}

func (s *Server) showAdminDashboard(c *gin.Context) {
	s.renderAdminDashboard(c, http.StatusOK, gin.H{})
}

func (s *Server) createDevice(c *gin.Context) {
	sess, _ := CurrentSession(c)

	var form DeviceForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderAdminDashboard(c, http.StatusBadRequest, gin.H{
			"Error": "Device name is required and may only contain letters, digits, hyphens and underscores",
		})
		return
	}

	creds, err := s.apiClient.CreateDevice(c.Request.Context(), sess.Token, form.DeviceName, form.Password)
	if err != nil {
		s.renderAdminDashboard(c, http.StatusBadGateway, gin.H{
			"Error": adminActionError(err, "Failed to add device"),
		})
		return
	}

	s.logger.Info().
		Str("device_id", creds.DeviceID).
		Str("device_name", creds.DeviceName).
		Str("created_by", sess.UserID).
		Msg("Device created")

	s.renderAdminDashboard(c, http.StatusOK, gin.H{"TempCredentials": creds})
}

func (s *Server) deleteDevice(c *gin.Context) {
	sess, _ := CurrentSession(c)
	id := c.Param("id")

	if err := s.apiClient.DeleteDevice(c.Request.Context(), sess.Token, id); err != nil {
		s.renderAdminDashboard(c, http.StatusBadGateway, gin.H{
			"Error": adminActionError(err, "Failed to delete device"),
		})
		return
	}

	s.logger.Info().
		Str("device_id", id).
		Str("deleted_by", sess.UserID).
		Msg("Device deleted")

	s.renderAdminDashboard(c, http.StatusOK, gin.H{})
}

func (s *Server) resetDevicePassword(c *gin.Context) {
	sess, _ := CurrentSession(c)
	id := c.Param("id")

	creds, err := s.apiClient.ResetDevicePassword(c.Request.Context(), sess.Token, id)
	if err != nil {
		s.renderAdminDashboard(c, http.StatusBadGateway, gin.H{
			"Error": adminActionError(err, "Failed to reset password"),
		})
		return
	}

	s.logger.Info().
		Str("device_id", id).
		Str("reset_by", sess.UserID).
		Msg("Device password reset")

	s.renderAdminDashboard(c, http.StatusOK, gin.H{"TempCredentials": creds})
}

// adminActionError prefers the backend's detail message (duplicate device
// name, device not found) over the generic fallback
func adminActionError(err error, fallback string) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Detail != "" && statusErr.StatusCode < http.StatusInternalServerError {
		return statusErr.Detail
	}
	return fallback
}
