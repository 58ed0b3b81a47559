package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myawesomesite/siteweb/internal/identity"
	"github.com/myawesomesite/siteweb/internal/session"
)

// LoginForm is a submitted login form. The identifier may be an email or a
// display name, so it stays free-form.
type LoginForm struct {
	Identifier string `form:"identifier" validate:"required"`
	Password   string `form:"password" validate:"required"`
}

// RegisterForm is a submitted registration form.
type RegisterForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Name     string `form:"name" validate:"required"`
}

func (s *Server) showLogin(c *gin.Context) {
	s.render(c, http.StatusOK, "login.html", nil)
}

// login resolves the identifier in two steps: email-shaped identifiers
// authenticate directly; anything else falls back to the metadata-name
// lookup and retries with the resolved email. The ordering is load-bearing
// — the two paths surface different provider errors.
func (s *Server) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		session.AddFlash(c, "Invalid credentials")
		s.render(c, http.StatusOK, "login.html", nil)
		return
	}
	if err := s.validator.Struct(form); err != nil {
		session.AddFlash(c, "Invalid credentials")
		s.render(c, http.StatusOK, "login.html", nil)
		return
	}

	ctx := c.Request.Context()
	looksLikeEmail := strings.Contains(form.Identifier, "@")

	user, err := s.identity.SignInWithPassword(ctx, form.Identifier, form.Password)
	if err != nil && !errors.Is(err, identity.ErrInvalidCredentials) {
		s.logger.Error().Err(err).Msg("Provider sign-in failed")
	}

	if user == nil && !looksLikeEmail {
		// The identifier is not an email; resolve it as a display name
		// and retry with the record's email
		record, lookupErr := s.identity.FindUserByName(ctx, form.Identifier)
		if lookupErr == nil {
			user, err = s.identity.SignInWithPassword(ctx, record.Email, form.Password)
			if err != nil && !errors.Is(err, identity.ErrInvalidCredentials) {
				s.logger.Error().Err(err).Msg("Provider sign-in failed after name lookup")
			}
		} else if !errors.Is(lookupErr, identity.ErrNotFound) {
			s.logger.Error().Err(lookupErr).Msg("Provider name lookup failed")
		}
	}

	if user == nil {
		session.AddFlash(c, "Invalid credentials")
		s.render(c, http.StatusOK, "login.html", nil)
		return
	}

	sess := s.sessions.NewSession(user.Email, user.ID)
	token, err := s.sessions.Issue(sess)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue session token")
		session.AddFlash(c, "An error occurred, please try again.")
		s.render(c, http.StatusOK, "login.html", nil)
		return
	}
	s.sessions.SetCookie(c, token)

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	c.Redirect(http.StatusFound, "/home")
}

func (s *Server) showRegister(c *gin.Context) {
	s.render(c, http.StatusOK, "register.html", nil)
}

// register creates the account with the provider, then attaches the display
// name to the record's metadata. A failure at either step re-renders the
// form with a notice; only a fully successful run redirects to login.
func (s *Server) register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		session.AddFlash(c, "Registration failed.")
		s.render(c, http.StatusOK, "register.html", nil)
		return
	}
	if err := s.validator.Struct(form); err != nil {
		session.AddFlash(c, "Registration failed.")
		s.render(c, http.StatusOK, "register.html", nil)
		return
	}

	ctx := c.Request.Context()

	user, err := s.identity.SignUp(ctx, form.Email, form.Password)
	if err != nil {
		s.logger.Error().Err(err).Str("email", form.Email).Msg("Provider sign-up failed")
		session.AddFlash(c, "An error occurred during registration.")
		s.render(c, http.StatusOK, "register.html", nil)
		return
	}

	_, err = s.identity.UpdateUser(ctx, user.ID, identity.UserUpdate{
		Metadata: map[string]any{"name": form.Name},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to attach name to user metadata")
		session.AddFlash(c, "Failed to update user metadata.")
		s.render(c, http.StatusOK, "register.html", nil)
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	session.AddFlash(c, "Registration successful, please log in.")
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) logout(c *gin.Context) {
	s.sessions.ClearCookie(c)
	c.Redirect(http.StatusFound, "/login")
}
