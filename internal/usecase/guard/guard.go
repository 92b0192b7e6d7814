package guard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/pkg/config"
	"github.com/johnquangdev/sales-assistant/pkg/metrics"
)

// VerificationMessage is shown on the login page when access was blocked
// on an unverified email
const VerificationMessage = "Please verify your email address before continuing. Check your inbox for the verification link."

// Decision reasons, used in logs and metrics
const (
	ReasonNoSession      = "no_session"
	ReasonNotRequired    = "verification_not_required"
	ReasonVerified       = "verified"
	ReasonReloadVerified = "reload_verified"
	ReasonUnverified     = "unverified"
	ReasonReloadFailed   = "reload_failed"
)

// Reloader refreshes a session from the identity provider. Implementations
// persist the refreshed session.
type Reloader interface {
	Reload(ctx context.Context, s *entities.Session) (*entities.Session, error)
}

// Requirement describes what a route demands of the session
type Requirement struct {
	Verified bool
}

// Decision is the terminal outcome of one evaluation
type Decision struct {
	State      entities.GateState
	Reason     string
	RedirectTo string
	Flash      *entities.Flash
	Session    *entities.Session
}

// Granted reports whether the protected content may be served
func (d Decision) Granted() bool {
	return d.State == entities.GateGranted
}

// Guard decides whether a request may reach a protected route
type Guard struct {
	reloader    Reloader
	gracePeriod time.Duration
	loginPath   string
	now         func() time.Time
	logger      *zap.Logger
}

// NewGuard creates a route guard
func NewGuard(reloader Reloader, cfg config.GuardConfig, logger *zap.Logger) *Guard {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{
		reloader:    reloader,
		gracePeriod: cfg.VerificationGracePeriod,
		loginPath:   loginPath,
		now:         time.Now,
		logger:      logger,
	}
}

// LoginPath returns the redirect target for blocked requests
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Evaluate runs the gate from Loading to exactly one terminal state. The
// identity record is reloaded at most once, and only for accounts younger
// than the grace period.
func (g *Guard) Evaluate(ctx context.Context, s *entities.Session, req Requirement) Decision {
	d := g.decide(ctx, s, req)

	metrics.GuardDecisionsTotal.WithLabelValues(d.State.String(), d.Reason).Inc()
	fields := []zap.Field{
		zap.String("state", d.State.String()),
		zap.String("reason", d.Reason),
	}
	if s != nil {
		fields = append(fields, zap.String("session_id", s.ID.String()), zap.String("uid", s.UID))
	}
	g.logger.Debug("guard.decision", fields...)
	return d
}

func (g *Guard) decide(ctx context.Context, s *entities.Session, req Requirement) Decision {
	if s == nil {
		return Decision{State: entities.GateRedirecting, Reason: ReasonNoSession, RedirectTo: g.loginPath}
	}
	if !req.Verified {
		return g.grant(s, ReasonNotRequired)
	}
	if s.EmailVerified {
		return g.grant(s, ReasonVerified)
	}

	if s.AccountAge(g.now()) >= g.gracePeriod {
		return g.pending(s, ReasonUnverified)
	}
	if g.reloader == nil {
		return g.pending(s, ReasonReloadFailed)
	}

	reloaded, err := g.reloader.Reload(ctx, s)
	if err != nil {
		metrics.GuardReloadsTotal.WithLabelValues("error").Inc()
		g.logger.Warn("guard.reload.failed", zap.String("session_id", s.ID.String()), zap.Error(err))
		return g.pending(s, ReasonReloadFailed)
	}
	if reloaded == nil || !reloaded.EmailVerified {
		metrics.GuardReloadsTotal.WithLabelValues("unverified").Inc()
		return g.pending(s, ReasonUnverified)
	}

	metrics.GuardReloadsTotal.WithLabelValues("verified").Inc()
	return g.grant(reloaded, ReasonReloadVerified)
}

func (g *Guard) grant(s *entities.Session, reason string) Decision {
	return Decision{State: entities.GateGranted, Reason: reason, Session: s}
}

func (g *Guard) pending(s *entities.Session, reason string) Decision {
	return Decision{
		State:      entities.GateRedirecting,
		Reason:     reason,
		RedirectTo: g.loginPath,
		Session:    s,
		Flash: &entities.Flash{
			Message:           VerificationMessage,
			Email:             s.Email,
			NeedsVerification: true,
		},
	}
}
