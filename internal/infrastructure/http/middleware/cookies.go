package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/pkg/config"
	"github.com/johnquangdev/sales-assistant/pkg/jwt"
)

const flashCookieName = "sa_flash"

// Cookies issues and reads the signed session and flash cookies
type Cookies struct {
	jwt *jwt.Manager
	cfg config.SessionConfig
}

// NewCookies creates a cookie helper bound to the session configuration
func NewCookies(jwtManager *jwt.Manager, cfg config.SessionConfig) *Cookies {
	if cfg.CookieName == "" {
		cfg.CookieName = "sa_session"
	}
	return &Cookies{jwt: jwtManager, cfg: cfg}
}

// SetSession writes the session cookie for sess
func (k *Cookies) SetSession(c echo.Context, sess *entities.Session) error {
	token, err := k.jwt.GenerateSessionToken(sess.ID, sess.UID)
	if err != nil {
		return err
	}
	c.SetCookie(k.cookie(k.cfg.CookieName, token, int(k.jwt.GetSessionExpiry().Seconds())))
	return nil
}

// ClearSession removes the session cookie
func (k *Cookies) ClearSession(c echo.Context) {
	c.SetCookie(k.cookie(k.cfg.CookieName, "", -1))
}

// SessionID returns the web session id carried by a valid session cookie
func (k *Cookies) SessionID(c echo.Context) (uuid.UUID, bool) {
	cookie, err := c.Cookie(k.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return uuid.Nil, false
	}
	claims, err := k.jwt.ValidateSessionToken(cookie.Value)
	if err != nil {
		return uuid.Nil, false
	}
	return claims.SessionID, true
}

// SetFlash hands a message to the next page the browser lands on
func (k *Cookies) SetFlash(c echo.Context, f *entities.Flash) error {
	if f == nil {
		return nil
	}
	token, err := k.jwt.GenerateFlashToken(f.Message, f.Email, f.NeedsVerification)
	if err != nil {
		return err
	}
	c.SetCookie(k.cookie(flashCookieName, token, 300))
	return nil
}

// PopFlash reads and clears the flash cookie. Invalid or expired flashes are dropped.
func (k *Cookies) PopFlash(c echo.Context) *entities.Flash {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	c.SetCookie(k.cookie(flashCookieName, "", -1))

	claims, err := k.jwt.ValidateFlashToken(cookie.Value)
	if err != nil {
		return nil
	}
	return &entities.Flash{
		Message:           claims.Message,
		Email:             claims.Email,
		NeedsVerification: claims.NeedsVerification,
	}
}

func (k *Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   k.cfg.SecureCookie,
		// Lax so the cookie survives the redirect back from Google sign-in
		SameSite: http.SameSiteLaxMode,
	}
}
