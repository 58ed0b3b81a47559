package server

import (
	"errors"
	"maps"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myawesomesite/siteweb/internal/identity"
	"github.com/myawesomesite/siteweb/internal/session"
	"github.com/myawesomesite/siteweb/internal/settings"
)

// UserSettingsForm is a submitted per-user settings form.
type UserSettingsForm struct {
	Email string `form:"email" validate:"required,email"`
	Name  string `form:"name" validate:"required"`
}

// SiteSettingsForm carries all five site settings fields. Values are
// free-form; the update is an unconditional full replace.
type SiteSettingsForm struct {
	SiteName        string `form:"site_name"`
	SiteDescription string `form:"site_description"`
	ContactEmail    string `form:"contact_email"`
	SupportPhone    string `form:"support_phone"`
	Address         string `form:"address"`
}

func (s *Server) showUserSettings(c *gin.Context) {
	s.render(c, http.StatusOK, "user_settings.html", nil)
}

// updateUserSettings merges the submitted name into the current metadata of
// the session's user and pushes email plus merged metadata back to the
// provider. Other metadata keys are preserved.
func (s *Server) updateUserSettings(c *gin.Context) {
	var form UserSettingsForm
	if err := c.ShouldBind(&form); err != nil {
		session.AddFlash(c, "An error occurred while updating settings.")
		s.render(c, http.StatusOK, "user_settings.html", nil)
		return
	}
	if err := s.validator.Struct(form); err != nil {
		session.AddFlash(c, "An error occurred while updating settings.")
		s.render(c, http.StatusOK, "user_settings.html", nil)
		return
	}

	sess, _ := currentSession(c)
	ctx := c.Request.Context()

	record, err := s.identity.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			session.AddFlash(c, "User not found.")
		} else {
			s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to fetch user record")
			session.AddFlash(c, "An error occurred while updating settings.")
		}
		s.render(c, http.StatusOK, "user_settings.html", nil)
		return
	}

	merged := make(map[string]any, len(record.Metadata)+1)
	maps.Copy(merged, record.Metadata)
	merged["name"] = form.Name

	_, err = s.identity.UpdateUser(ctx, sess.UserID, identity.UserUpdate{
		Email:    form.Email,
		Metadata: merged,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to update user record")
		session.AddFlash(c, "Failed to update user settings.")
		s.render(c, http.StatusOK, "user_settings.html", nil)
		return
	}

	session.AddFlash(c, "User settings updated successfully.")
	s.render(c, http.StatusOK, "user_settings.html", nil)
}

func (s *Server) showSiteSettings(c *gin.Context) {
	s.render(c, http.StatusOK, "site_settings.html", nil)
}

// updateSiteSettings replaces the whole settings record with the submitted
// values. Submitting the same values twice leaves the state unchanged.
func (s *Server) updateSiteSettings(c *gin.Context) {
	var form SiteSettingsForm
	if err := c.ShouldBind(&form); err != nil {
		session.AddFlash(c, "An error occurred while updating settings.")
		s.render(c, http.StatusOK, "site_settings.html", nil)
		return
	}

	s.settings.Replace(settings.Site{
		SiteName:        form.SiteName,
		SiteDescription: form.SiteDescription,
		ContactEmail:    form.ContactEmail,
		SupportPhone:    form.SupportPhone,
		Address:         form.Address,
	})

	session.AddFlash(c, "Site settings updated successfully.")
	s.render(c, http.StatusOK, "site_settings.html", nil)
}
