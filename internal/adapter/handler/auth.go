package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/errors"
	authDTO "github.com/johnquangdev/sales-assistant/internal/adapter/dto/auth"
	"github.com/johnquangdev/sales-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	httpmw "github.com/johnquangdev/sales-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/sales-assistant/internal/usecase/session"
	"github.com/johnquangdev/sales-assistant/pkg/metrics"
	"github.com/johnquangdev/sales-assistant/pkg/validator"
)

// AuthService is the sign-in surface the handlers drive
type AuthService interface {
	GoogleEnabled() bool
	SignUp(ctx context.Context, email, password, displayName string) (*entities.Session, error)
	SignIn(ctx context.Context, email, password string) (*entities.Session, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	GoogleCallback(ctx context.Context, state, code string) (*entities.Session, error)
	ExchangeIDToken(ctx context.Context, idToken, refreshToken string) (*entities.Session, error)
	SignOut(ctx context.Context, sessionID uuid.UUID) error
	ResendVerification(ctx context.Context, sessionID uuid.UUID) error
}

// SessionStates exposes web session auth state and its changes
type SessionStates interface {
	State(ctx context.Context, id uuid.UUID) (entities.AuthState, error)
	Subscribe(ctx context.Context, id uuid.UUID, obs session.Observer) *session.Subscription
}

// keepAliveInterval keeps idle event streams open through proxies
const keepAliveInterval = 25 * time.Second

// Auth handles the JSON auth endpoints
type Auth struct {
	auth     AuthService
	sessions SessionStates
	cookies  *httpmw.Cookies
	logger   *zap.Logger
}

// NewAuth creates a new auth handler
func NewAuth(auth AuthService, sessions SessionStates, cookies *httpmw.Cookies, logger *zap.Logger) *Auth {
	return &Auth{
		auth:     auth,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// Session returns the caller's auth state
func (h *Auth) Session(c echo.Context) error {
	id, ok := httpmw.GetSessionIDFromContext(c)
	if !ok {
		return HandleSuccess(h.logger, c, presenter.ToSessionResponse(entities.AuthState{}))
	}

	state, err := h.sessions.State(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn("auth.session.state_failed", zap.String("session_id", id.String()), zap.Error(err))
	}
	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(state))
}

// Exchange establishes a web session from a client-side Firebase sign-in
func (h *Auth) Exchange(c echo.Context) error {
	var req authDTO.ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(validator.Message(err)))
	}

	sess, err := h.auth.ExchangeIDToken(c.Request().Context(), req.IDToken, req.RefreshToken)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.cookies.SetSession(c, sess); err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(entities.AuthState{User: sess.ToPublic()}))
}

// Events streams auth state changes of the caller's web session as
// server-sent events. The first event is the current state; the stream ends
// once the session is signed out or the client disconnects.
func (h *Auth) Events(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id, ok := httpmw.GetSessionIDFromContext(c)
	if !ok {
		return writeEvent(w, entities.AuthState{})
	}

	ctx := c.Request().Context()
	// one-slot buffer that always holds the latest state
	states := make(chan entities.AuthState, 1)
	sub := h.sessions.Subscribe(ctx, id, func(s entities.AuthState) {
		for {
			select {
			case states <- s:
				return
			default:
				select {
				case <-states:
				default:
				}
			}
		}
	})
	defer sub.Unsubscribe()

	metrics.SessionStreamsActive.Inc()
	defer metrics.SessionStreamsActive.Dec()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-states:
			if err := writeEvent(w, s); err != nil {
				h.logger.Debug("auth.events.write_failed", zap.String("session_id", id.String()), zap.Error(err))
				return nil
			}
			if s.User == nil && !s.Loading {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

// ResendVerification sends another verification email
func (h *Auth) ResendVerification(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}
	if err := h.auth.ResendVerification(c.Request().Context(), sess.ID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{"email": sess.Email, "sent": true})
}

func writeEvent(w *echo.Response, s entities.AuthState) error {
	data, err := json.Marshal(presenter.ToSessionResponse(s))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: auth\ndata: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
