package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/external/firebase"
	"github.com/johnquangdev/sales-assistant/internal/usecase/session"
	"github.com/johnquangdev/sales-assistant/pkg/metrics"
)

// IdentityProvider is the Firebase Auth surface used by the service
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*firebase.AuthResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*firebase.AuthResult, error)
	SignInWithGoogle(ctx context.Context, googleIDToken, requestURI string) (*firebase.AuthResult, error)
	Lookup(ctx context.Context, idToken string) (*firebase.Account, error)
	SendVerificationEmail(ctx context.Context, idToken string) error
	UpdateDisplayName(ctx context.Context, idToken, displayName string) error
	RefreshIDToken(ctx context.Context, refreshToken string) (*firebase.AuthResult, error)
}

// TokenVerifier checks ID tokens minted by the identity provider
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*firebase.TokenClaims, error)
}

// GoogleOAuth is the Google authorization-code leg of Google sign-in
type GoogleOAuth interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// StateStore issues and checks one-time OAuth state tokens
type StateStore interface {
	GenerateState(ctx context.Context) (string, error)
	ValidateState(ctx context.Context, state string) bool
}

const (
	providerPassword = "password"
	providerGoogle   = "google.com"
)

// Service signs users in and out and keeps their web sessions fresh
type Service struct {
	idp       IdentityProvider
	verifier  TokenVerifier
	google    GoogleOAuth
	states    StateStore
	resolver  *session.Resolver
	convo     *session.ConversationContext
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new auth service. google may be nil when Google
// sign-in is not configured.
func NewService(
	idp IdentityProvider,
	verifier TokenVerifier,
	google GoogleOAuth,
	states StateStore,
	resolver *session.Resolver,
	convo *session.ConversationContext,
	publicURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		idp:       idp,
		verifier:  verifier,
		google:    google,
		states:    states,
		resolver:  resolver,
		convo:     convo,
		publicURL: publicURL,
		logger:    logger,
		now:       time.Now,
	}
}

// GoogleEnabled reports whether Google sign-in is configured
func (s *Service) GoogleEnabled() bool {
	return s.google != nil
}

// SignUp creates an account, sends the verification email and signs the
// new user in
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*entities.Session, error) {
	email = normalizeEmail(email)
	res, err := s.idp.SignUp(ctx, email, password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "error").Inc()
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("signup", "success").Inc()

	if name := strings.TrimSpace(displayName); name != "" {
		if err := s.idp.UpdateDisplayName(ctx, res.IDToken, name); err != nil {
			s.logger.Warn("auth.signup.display_name_failed", zap.String("uid", res.UID), zap.Error(err))
		} else {
			res.DisplayName = name
		}
	}
	if err := s.idp.SendVerificationEmail(ctx, res.IDToken); err != nil {
		s.logger.Warn("auth.signup.verification_email_failed", zap.String("uid", res.UID), zap.Error(err))
	}

	sess := s.newSession(res, providerPassword)
	// a fresh account is created now even if the lookup below fails
	sess.AccountCreatedAt = s.now()
	s.applyAccount(ctx, sess)

	if err := s.resolver.Establish(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SignIn signs in with email and password
func (s *Service) SignIn(ctx context.Context, email, password string) (*entities.Session, error) {
	res, err := s.idp.SignInWithPassword(ctx, normalizeEmail(email), password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("password", "error").Inc()
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("password", "success").Inc()

	sess := s.newSession(res, providerPassword)
	s.applyAccount(ctx, sess)

	if err := s.resolver.Establish(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GoogleAuthURL starts Google sign-in and returns the consent URL
func (s *Service) GoogleAuthURL(ctx context.Context) (string, error) {
	if s.google == nil {
		return "", entities.ErrInvalidRequest
	}
	state, err := s.states.GenerateState(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s.google.GetAuthURL(state), nil
}

// GoogleCallback completes Google sign-in
func (s *Service) GoogleCallback(ctx context.Context, state, code string) (*entities.Session, error) {
	if s.google == nil {
		return nil, entities.ErrInvalidRequest
	}
	if !s.states.ValidateState(ctx, state) {
		metrics.AuthAttemptsTotal.WithLabelValues("google", "state_mismatch").Inc()
		return nil, entities.ErrOAuthStateMismatch
	}

	googleIDToken, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("google", "error").Inc()
		return nil, err
	}

	res, err := s.idp.SignInWithGoogle(ctx, googleIDToken, s.publicURL)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("google", "error").Inc()
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("google", "success").Inc()

	sess := s.newSession(res, providerGoogle)
	s.applyAccount(ctx, sess)

	if err := s.resolver.Establish(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ExchangeIDToken establishes a web session from an ID token obtained by a
// client-side sign-in
func (s *Service) ExchangeIDToken(ctx context.Context, idToken, refreshToken string) (*entities.Session, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("exchange", "error").Inc()
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidToken, err)
	}
	metrics.AuthAttemptsTotal.WithLabelValues("exchange", "success").Inc()

	provider := claims.Firebase.SignInProvider
	if provider == "" {
		provider = providerPassword
	}
	sess := entities.NewSession(claims.UID, claims.Email)
	sess.Provider = provider
	sess.DisplayName = claims.Name
	sess.EmailVerified = claims.EmailVerified
	sess.IDToken = idToken
	sess.RefreshToken = refreshToken
	sess.IDTokenExpiresAt = claims.ExpiresAt
	s.applyAccount(ctx, sess)

	if err := s.resolver.Establish(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SignOut ends the web session and forgets its conversation context
func (s *Service) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.resolver.End(ctx, sessionID); err != nil {
		return err
	}
	if err := s.convo.Reset(ctx, sessionID); err != nil {
		s.logger.Warn("auth.signout.context_reset_failed", zap.String("session_id", sessionID.String()), zap.Error(err))
	}
	return nil
}

// Reload refreshes the session from the identity provider's account record
// and persists the result
func (s *Service) Reload(ctx context.Context, sess *entities.Session) (*entities.Session, error) {
	token, err := s.freshToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	acc, err := s.idp.Lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}
	if acc.Disabled {
		return nil, entities.ErrUserDisabled
	}

	updated := *sess
	updated.EmailVerified = acc.EmailVerified
	if acc.Email != "" {
		updated.Email = acc.Email
	}
	if acc.DisplayName != "" {
		updated.DisplayName = acc.DisplayName
	}
	if !acc.CreatedAt.IsZero() {
		updated.AccountCreatedAt = acc.CreatedAt
	}

	if err := s.resolver.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ResendVerification sends another verification email for the session's account
func (s *Service) ResendVerification(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.resolver.Current(ctx, sessionID)
	if err != nil {
		return err
	}
	token, err := s.freshToken(ctx, sess)
	if err != nil {
		return err
	}
	return s.idp.SendVerificationEmail(ctx, token)
}

// BearerToken returns a valid ID token for the session, refreshing it when
// it is about to expire
func (s *Service) BearerToken(ctx context.Context, sessionID uuid.UUID) (string, error) {
	sess, err := s.resolver.Current(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.freshToken(ctx, sess)
}

// TokenSource binds BearerToken to one session
func (s *Service) TokenSource(sessionID uuid.UUID) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return s.BearerToken(ctx, sessionID)
	}
}

func (s *Service) freshToken(ctx context.Context, sess *entities.Session) (string, error) {
	if !sess.TokenExpired(s.now()) {
		return sess.IDToken, nil
	}
	if sess.RefreshToken == "" {
		return "", entities.ErrSessionExpired
	}

	res, err := s.idp.RefreshIDToken(ctx, sess.RefreshToken)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidToken) {
			s.logger.Info("auth.token.refresh_rejected", zap.String("session_id", sess.ID.String()))
			return "", fmt.Errorf("%w: %w", entities.ErrRefreshTokenRejected, err)
		}
		return "", fmt.Errorf("failed to refresh id token: %w", err)
	}
	sess.SetTokens(res.IDToken, res.RefreshToken, res.ExpiresIn)
	if err := s.resolver.Update(ctx, sess); err != nil {
		s.logger.Warn("auth.token.persist_failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
	}
	return sess.IDToken, nil
}

func (s *Service) newSession(res *firebase.AuthResult, provider string) *entities.Session {
	sess := entities.NewSession(res.UID, res.Email)
	sess.Provider = provider
	sess.DisplayName = res.DisplayName
	sess.EmailVerified = res.EmailVerified
	sess.SetTokens(res.IDToken, res.RefreshToken, res.ExpiresIn)
	return sess
}

// applyAccount fills verification state and creation time from the account
// record. A failed lookup leaves the sign-in response values in place.
func (s *Service) applyAccount(ctx context.Context, sess *entities.Session) {
	acc, err := s.idp.Lookup(ctx, sess.IDToken)
	if err != nil {
		s.logger.Warn("auth.lookup.failed", zap.String("uid", sess.UID), zap.Error(err))
		return
	}
	sess.EmailVerified = acc.EmailVerified
	if !acc.CreatedAt.IsZero() {
		sess.AccountCreatedAt = acc.CreatedAt
	}
	if sess.DisplayName == "" {
		sess.DisplayName = acc.DisplayName
	}
	if sess.Email == "" {
		sess.Email = acc.Email
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
