package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// landing shows the public landing page, or sends authenticated visitors
// straight home.
func (s *Server) landing(c *gin.Context) {
	if _, ok := currentSession(c); ok {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	s.render(c, http.StatusOK, "landing.html", nil)
}

func (s *Server) home(c *gin.Context) {
	s.render(c, http.StatusOK, "home.html", nil)
}
