package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myawesomesite/siteweb/internal/session"
)

const sessionKey = "session"

// currentSession returns the session resolved for this request, if any.
func currentSession(c *gin.Context) (*session.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	sess, ok := v.(*session.Session)
	return sess, ok
}

// resolveSession parses the session cookie once per request and stores the
// result in the request context. An absent or invalid cookie simply leaves
// the request anonymous.
func (s *Server) resolveSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.sessions.FromRequest(c)
		if err == nil && sess.Email != "" {
			c.Set(sessionKey, sess)
		}
		c.Next()
	}
}

// requireSession redirects anonymous requests to the login page.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentSession(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAdmin redirects non-admin sessions to the login page. Login is
// also the destination for insufficient role, not a forbidden page.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok || sess.Role != session.RoleAdmin {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
