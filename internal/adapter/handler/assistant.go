package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpmw "github.com/johnquangdev/sales-assistant/internal/infrastructure/http/middleware"
)

// Assistant forwards the voice pipeline, transcript, answer and TTS calls to
// the backend with the session's ID token as bearer
type Assistant struct {
	target *url.URL
	tokens httpmw.BearerSource
	logger *zap.Logger
}

// NewAssistant creates the assistant proxy for the backend at baseURL
func NewAssistant(baseURL string, tokens httpmw.BearerSource, logger *zap.Logger) (*Assistant, error) {
	target, err := url.Parse(baseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	return &Assistant{target: target, tokens: tokens, logger: logger}, nil
}

// InjectBearer replaces browser credentials with the session's ID token
func (h *Assistant) InjectBearer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := httpmw.GetSessionFromContext(c)
			if !ok {
				return c.NoContent(http.StatusUnauthorized)
			}

			token, err := h.tokens.BearerToken(c.Request().Context(), sess.ID)
			if err != nil {
				return HandleError(h.logger, c, err)
			}

			req := c.Request()
			req.Header.Del("Cookie")
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			return next(c)
		}
	}
}

// Proxy forwards /v1/assistant/* to the backend root
func (h *Assistant) Proxy(prefix string) echo.MiddlewareFunc {
	return middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: h.target}}),
		Rewrite: map[string]string{
			prefix + "/*": "/$1",
		},
	})
}
