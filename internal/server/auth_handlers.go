package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mywatt/dashboard/internal/api"
)

// LoginForm represents the login form submission
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	IsAdmin  bool   `form:"is_admin"`
}

// ChangePasswordForm represents the change-password form submission
type ChangePasswordForm struct {
	CurrentPassword string `form:"current_password" binding:"required"`
	NewPassword     string `form:"new_password" binding:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" binding:"required"`
}

func (s *Server) showLogin(c *gin.Context) {
	// An authenticated user has nothing to do here
	if sess, ok := CurrentSession(c); ok {
		c.Redirect(http.StatusFound, landingRoute(sess))
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (s *Server) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Error": "Username and password are required",
		})
		return
	}

	result, err := s.apiClient.Login(c.Request.Context(), form.Username, form.Password, form.IsAdmin)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{
				"Error": "Invalid username or password",
			})
			return
		}
		s.logger.Error().Err(err).Msg("Login request failed")
		c.HTML(http.StatusBadGateway, "login.html", gin.H{
			"Error": "Login is temporarily unavailable. Please try again.",
		})
		return
	}

	sess, err := s.sessions.Create(c.Request.Context(), result)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create session")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Error": "Login failed. Please try again.",
		})
		return
	}

	cookieValue, err := s.cookies.Encode(sess.ID, s.sessions.TTL())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode session cookie")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Error": "Login failed. Please try again.",
		})
		return
	}
	s.setSessionCookie(c, cookieValue, int(s.sessions.TTL().Seconds()))

	// A temporary password must be changed before anything else
	if sess.ForcePasswordChange {
		c.Redirect(http.StatusFound, changePasswordRoute)
		return
	}

	c.Redirect(http.StatusFound, landingRoute(sess))
}

func (s *Server) logout(c *gin.Context) {
	if sess, ok := CurrentSession(c); ok {
		if err := s.sessions.Destroy(c.Request.Context(), sess.ID); err != nil {
			s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to destroy session")
		}
	}

	s.expireSessionCookie(c)
	c.Redirect(http.StatusFound, loginRoute)
}

func (s *Server) showChangePassword(c *gin.Context) {
	sess, _ := CurrentSession(c)
	c.HTML(http.StatusOK, "change_password.html", gin.H{
		"Session": sess,
	})
}

func (s *Server) changePassword(c *gin.Context) {
	sess, _ := CurrentSession(c)

	var form ChangePasswordForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "change_password.html", gin.H{
			"Session": sess,
			"Error":   changePasswordFormError(err),
		})
		return
	}

	// Confirmation mismatch is caught before any network call
	if form.NewPassword != form.ConfirmPassword {
		c.HTML(http.StatusBadRequest, "change_password.html", gin.H{
			"Session": sess,
			"Error":   "Passwords do not match",
		})
		return
	}

	err := s.apiClient.ChangePassword(c.Request.Context(), sess.Token, form.CurrentPassword, form.NewPassword)
	if err != nil {
		status := http.StatusBadGateway
		message := "Failed to change password. Please try again."
		if errors.Is(err, api.ErrCurrentPasswordIncorrect) {
			status = http.StatusBadRequest
			message = "Current password is incorrect"
		} else {
			s.logger.Error().Err(err).Msg("Change password request failed")
		}
		c.HTML(status, "change_password.html", gin.H{
			"Session": sess,
			"Error":   message,
		})
		return
	}

	// Durably clear the flag so the next navigation is no longer forced here
	if err := s.sessions.ClearForcePasswordChange(c.Request.Context(), sess.ID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to clear force-password-change flag")
	}

	c.Redirect(http.StatusFound, landingRoute(sess))
}

// changePasswordFormError maps binding failures to the messages the form shows
func changePasswordFormError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NewPassword") && strings.Contains(msg, "min"):
		return "New password must be at least 8 characters long"
	case strings.Contains(msg, "CurrentPassword"):
		return "Current password is required"
	default:
		return "All fields are required"
	}
}
