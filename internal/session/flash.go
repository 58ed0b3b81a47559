package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie  = "site_flash"
	flashPending = "flash_pending"
)

// AddFlash queues a transient notice to be shown on the next rendered page.
// Notices added within the same request accumulate.
func AddFlash(c *gin.Context, message string) {
	var messages []string
	if v, ok := c.Get(flashPending); ok {
		messages, _ = v.([]string)
	} else {
		messages = readFlashes(c)
	}
	messages = append(messages, message)
	c.Set(flashPending, messages)
	writeFlashes(c, messages)
}

// TakeFlashes returns all queued notices and clears them, so each notice
// renders exactly once. Notices added earlier in the same request are
// included.
func TakeFlashes(c *gin.Context) []string {
	var messages []string
	if v, ok := c.Get(flashPending); ok {
		messages, _ = v.([]string)
	} else {
		messages = readFlashes(c)
	}
	c.Set(flashPending, []string(nil))
	if len(messages) > 0 {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
	return messages
}

func readFlashes(c *gin.Context) []string {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var messages []string
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil
	}
	return messages
}

func writeFlashes(c *gin.Context, messages []string) {
	data, err := json.Marshal(messages)
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
	})
}
