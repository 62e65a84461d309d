package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie = "dash_flash"

	// maxFlashRunes keeps the escaped cookie well under the 4KB browser limit.
	maxFlashRunes = 200
)

// Flash is a one-shot toast shown on the next page render.
type Flash struct {
	Kind    string // success, error
	Message string
}

func (h *Handler) setFlash(c *gin.Context, kind, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, kind+"|"+flashText(message), 60, "/", "", h.cfg.Security.Cookie.Secure, true)
}

// popFlash reads and clears the flash cookie.
func (h *Handler) popFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", h.cfg.Security.Cookie.Secure, true)

	kind, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

// flashText is the first line of message, cut to maxFlashRunes.
func flashText(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > maxFlashRunes {
		return string(r[:maxFlashRunes-1]) + "…"
	}
	return line
}
