package server

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// crawlableRoutes are the static GET routes that take no parameters,
// enumerated for the sitemap.
var crawlableRoutes = []string{
	"/",
	"/home",
	"/user_settings",
	"/site_settings",
	"/register",
	"/login",
	"/logout",
	"/sitemap.xml",
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemap renders the crawlable routes as an XML urlset. Every entry
// carries the same last-modified date, ten days before now.
func (s *Server) sitemap(c *gin.Context) {
	lastMod := time.Now().AddDate(0, 0, -10).Format("2006-01-02")

	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(crawlableRoutes)),
	}
	for _, route := range crawlableRoutes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     s.config.Server.BaseURL + route,
			LastMod: lastMod,
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal sitemap")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/xml", append([]byte(xml.Header), body...))
}
