package middleware

import (
	"context"
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/errors"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/usecase/guard"
)

const (
	// SessionContextKey is the echo context key for the signed-in *entities.Session
	SessionContextKey = "session"
	// SessionIDContextKey is the echo context key for the web session id
	SessionIDContextKey = "session_id"
)

// ResponseMode selects how a blocked request is answered
type ResponseMode int

const (
	// ModeHTML redirects the browser
	ModeHTML ResponseMode = iota
	// ModeJSON answers with an error body
	ModeJSON
)

// SessionSource loads web sessions
type SessionSource interface {
	Current(ctx context.Context, id uuid.UUID) (*entities.Session, error)
}

// RoleLookup resolves the backend identity of a bearer token
type RoleLookup interface {
	WhoAmI(ctx context.Context, token string) (*entities.Identity, error)
}

// BearerSource returns a valid ID token for a web session
type BearerSource interface {
	BearerToken(ctx context.Context, sessionID uuid.UUID) (string, error)
}

// AuthMiddleware attaches the web session to requests and gates protected routes
type AuthMiddleware struct {
	cookies  *Cookies
	sessions SessionSource
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(cookies *Cookies, sessions SessionSource, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		cookies:  cookies,
		sessions: sessions,
		logger:   logger,
	}
}

// LoadSession reads the session cookie and puts the session into the echo
// context. Requests without a live session pass through unauthenticated.
func (m *AuthMiddleware) LoadSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := m.cookies.SessionID(c)
			if !ok {
				return next(c)
			}

			sess, err := m.sessions.Current(c.Request().Context(), id)
			if err != nil {
				if stdErrors.Is(err, entities.ErrSessionNotFound) {
					m.cookies.ClearSession(c)
				} else {
					m.logger.Warn("session.load.failed", zap.String("session_id", id.String()), zap.Error(err))
				}
				return next(c)
			}

			c.Set(SessionContextKey, sess)
			c.Set(SessionIDContextKey, sess.ID)
			return next(c)
		}
	}
}

// RouteGuard evaluates the route guard for each request. Granted requests
// continue with the (possibly reloaded) session; blocked ones are redirected
// to the login page with a flash, or answered with 401/403 in JSON mode.
func (m *AuthMiddleware) RouteGuard(g *guard.Guard, req guard.Requirement, mode ResponseMode) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, _ := GetSessionFromContext(c)
			decision := g.Evaluate(c.Request().Context(), sess, req)

			if decision.Granted() {
				if decision.Session != nil {
					c.Set(SessionContextKey, decision.Session)
				}
				return next(c)
			}

			if mode == ModeJSON {
				if decision.Flash == nil {
					return respondError(c, errors.ErrUnauthenticated())
				}
				return respondError(c, errors.ErrVerificationPending(decision.Flash.Email, decision.Flash.Message))
			}

			if err := m.cookies.SetFlash(c, decision.Flash); err != nil {
				m.logger.Warn("guard.flash.failed", zap.Error(err))
			}
			return c.Redirect(http.StatusSeeOther, decision.RedirectTo)
		}
	}
}

// RequireRole checks the backend role of the signed-in user. It must run
// after RouteGuard.
func (m *AuthMiddleware) RequireRole(lookup RoleLookup, tokens BearerSource, role entities.UserRole, mode ResponseMode) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := GetSessionFromContext(c)
			if !ok {
				return respondError(c, errors.ErrUnauthenticated())
			}

			ctx := c.Request().Context()
			identity, err := m.identity(ctx, lookup, tokens, sess)
			if err != nil {
				m.logger.Warn("auth.role.lookup_failed", zap.String("uid", sess.UID), zap.Error(err))
			}
			if err == nil && identity.Role == role {
				c.Set("identity", identity)
				return next(c)
			}

			if mode == ModeHTML {
				return c.Redirect(http.StatusSeeOther, "/dashboard")
			}
			if err != nil && !stdErrors.Is(err, entities.ErrForbidden) {
				return respondError(c, errors.ErrExternalAPIFailed("backend", err))
			}
			return respondError(c, errors.ErrForbidden("This page requires the "+string(role)+" role"))
		}
	}
}

func (m *AuthMiddleware) identity(ctx context.Context, lookup RoleLookup, tokens BearerSource, sess *entities.Session) (*entities.Identity, error) {
	token, err := tokens.BearerToken(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return lookup.WhoAmI(ctx, token)
}

// GetSessionFromContext retrieves the signed-in session from the echo context
func GetSessionFromContext(c echo.Context) (*entities.Session, bool) {
	sess, ok := c.Get(SessionContextKey).(*entities.Session)
	return sess, ok && sess != nil
}

// GetSessionIDFromContext retrieves the web session id from the echo context
func GetSessionIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(SessionIDContextKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

type errorBody struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// respondError writes an AppError in the same shape handlers use
func respondError(c echo.Context, appErr errors.AppError) error {
	return c.JSON(appErr.HTTPCode, errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
