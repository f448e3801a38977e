package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mywatt/dashboard/internal/session"
)

const (
	sessionContextKey = "session"

	loginRoute          = "/login"
	homeRoute           = "/"
	adminHomeRoute      = "/admin/dashboard"
	changePasswordRoute = "/change-password"
)

func setSession(c *gin.Context, sess *session.Session) {
	c.Set(sessionContextKey, sess)
}

// CurrentSession returns the session resolved for this request, if any
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}

	sess, ok := value.(*session.Session)
	return sess, ok
}

// landingRoute is where an authenticated user belongs by role
func landingRoute(sess *session.Session) string {
	if sess.IsAdmin() {
		return adminHomeRoute
	}
	return homeRoute
}

// isDataRequest reports whether this is a chart-data fetch rather than a page
// navigation; data requests get JSON statuses instead of redirects.
func isDataRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/data/")
}

// sessionMiddleware resolves the session cookie into a session and stashes it
// in the request context. Resolution is synchronous, so no guarded handler
// runs before the session check completes. An invalid session expires the
// cookie; the guards downstream decide where to send the request.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(session.CookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		sessionID, err := s.cookies.Decode(cookie)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Unreadable session cookie")
			s.expireSessionCookie(c)
			c.Next()
			return
		}

		sess, err := s.sessions.Resolve(c.Request.Context(), sessionID)
		if err != nil {
			s.expireSessionCookie(c)
			c.Next()
			return
		}

		setSession(c, sess)
		c.Next()
	}
}

// requireAuth gates routes for any authenticated user. While the
// force-password-change flag is set, the change-password view is the only
// reachable page and data requests are refused outright.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			s.refuse(c, http.StatusUnauthorized, loginRoute)
			return
		}

		if sess.ForcePasswordChange && c.Request.URL.Path != changePasswordRoute {
			s.refuse(c, http.StatusForbidden, changePasswordRoute)
			return
		}

		c.Next()
	}
}

// requireAdmin gates the admin routes. A valid non-admin user is sent to the
// default landing page, never back to login.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			s.refuse(c, http.StatusUnauthorized, loginRoute)
			return
		}

		if !sess.IsAdmin() {
			s.refuse(c, http.StatusForbidden, homeRoute)
			return
		}

		c.Next()
	}
}

// refuse terminates the request: JSON error for data fetches, redirect for
// page navigations
func (s *Server) refuse(c *gin.Context, statusCode int, target string) {
	if isDataRequest(c) {
		c.AbortWithStatusJSON(statusCode, gin.H{"error": http.StatusText(statusCode)})
		return
	}

	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", false, true)
}

func (s *Server) expireSessionCookie(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
}
