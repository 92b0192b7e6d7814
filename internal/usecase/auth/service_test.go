package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/adapter/repository"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/external/firebase"
	"github.com/johnquangdev/sales-assistant/internal/usecase/session"
)

type fakeIDP struct {
	signInErr     error
	signUpErr     error
	lookupErr     error
	account       firebase.Account
	verifyEmails  int
	refreshes     int
	displayNames  []string
	googleTokens  []string
	refreshResult *firebase.AuthResult
	refreshErr    error
}

func (f *fakeIDP) result(email string) *firebase.AuthResult {
	return &firebase.AuthResult{
		UID: "uid-1", Email: email, IDToken: "id-1", RefreshToken: "rt-1", ExpiresIn: time.Hour,
	}
}

func (f *fakeIDP) SignUp(_ context.Context, email, _ string) (*firebase.AuthResult, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.result(email), nil
}

func (f *fakeIDP) SignInWithPassword(_ context.Context, email, _ string) (*firebase.AuthResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.result(email), nil
}

func (f *fakeIDP) SignInWithGoogle(_ context.Context, googleIDToken, _ string) (*firebase.AuthResult, error) {
	f.googleTokens = append(f.googleTokens, googleIDToken)
	res := f.result("g@x.com")
	res.EmailVerified = true
	return res, nil
}

func (f *fakeIDP) Lookup(_ context.Context, _ string) (*firebase.Account, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	acc := f.account
	return &acc, nil
}

func (f *fakeIDP) SendVerificationEmail(_ context.Context, _ string) error {
	f.verifyEmails++
	return nil
}

func (f *fakeIDP) UpdateDisplayName(_ context.Context, _, name string) error {
	f.displayNames = append(f.displayNames, name)
	return nil
}

func (f *fakeIDP) RefreshIDToken(_ context.Context, _ string) (*firebase.AuthResult, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.refreshResult != nil {
		return f.refreshResult, nil
	}
	return &firebase.AuthResult{IDToken: "id-refreshed", RefreshToken: "rt-2", ExpiresIn: time.Hour}, nil
}

type fakeVerifier struct {
	claims *firebase.TokenClaims
	err    error
}

func (v *fakeVerifier) Verify(_ context.Context, _ string) (*firebase.TokenClaims, error) {
	return v.claims, v.err
}

type fakeGoogle struct{}

func (fakeGoogle) GetAuthURL(state string) string {
	return "https://accounts.google.com/o?state=" + state
}

func (fakeGoogle) ExchangeCode(_ context.Context, code string) (string, error) {
	return "google-id-for-" + code, nil
}

type fakeStates struct{ valid map[string]bool }

func (s *fakeStates) GenerateState(_ context.Context) (string, error) {
	s.valid["st"] = true
	return "st", nil
}

func (s *fakeStates) ValidateState(_ context.Context, state string) bool {
	ok := s.valid[state]
	delete(s.valid, state)
	return ok
}

type fixture struct {
	svc      *Service
	idp      *fakeIDP
	resolver *session.Resolver
	convo    *session.ConversationContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := cache.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })

	resolver := session.NewResolver(repository.NewSessionRepository(kv), time.Hour, zap.NewNop())
	convo := session.NewConversationContext(repository.NewConversationContextRepository(kv), time.Hour, zap.NewNop())
	idp := &fakeIDP{account: firebase.Account{UID: "uid-1", Email: "a@x.com", CreatedAt: time.Now().Add(-time.Hour)}}
	verifier := &fakeVerifier{}
	svc := NewService(idp, verifier, fakeGoogle{}, &fakeStates{valid: map[string]bool{}}, resolver, convo, "http://localhost:8080", zap.NewNop())

	return &fixture{svc: svc, idp: idp, resolver: resolver, convo: convo}
}

func TestSignIn_EstablishesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SignIn(ctx, " A@X.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sess.Email)
	assert.False(t, sess.AccountCreatedAt.IsZero())

	stored, err := f.resolver.Current(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "id-1", stored.IDToken)
}

func TestSignIn_ProviderErrorsAreReturned(t *testing.T) {
	f := newFixture(t)
	f.idp.signInErr = fmt.Errorf("wrapped: %w", entities.ErrUserDisabled)

	_, err := f.svc.SignIn(context.Background(), "a@x.com", "pw")
	assert.ErrorIs(t, err, entities.ErrUserDisabled)
	assert.Equal(t, "This account has been disabled. Please contact support.", UserMessage(err))
}

func TestSignUp_SendsVerificationAndSetsName(t *testing.T) {
	f := newFixture(t)
	f.idp.lookupErr = errors.New("lookup unavailable")

	sess, err := f.svc.SignUp(context.Background(), "new@x.com", "secret123", "Ann")
	require.NoError(t, err)
	assert.Equal(t, 1, f.idp.verifyEmails)
	assert.Equal(t, []string{"Ann"}, f.idp.displayNames)
	assert.Equal(t, "Ann", sess.DisplayName)
	assert.False(t, sess.EmailVerified)
	assert.WithinDuration(t, time.Now(), sess.AccountCreatedAt, 5*time.Second, "new accounts start inside the grace period")
}

func TestReload_PicksUpVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SignIn(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.False(t, sess.EmailVerified)

	f.idp.account.EmailVerified = true
	reloaded, err := f.svc.Reload(ctx, sess)
	require.NoError(t, err)
	assert.True(t, reloaded.EmailVerified)

	stored, err := f.resolver.Current(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified, "reloaded session is persisted")
}

func TestReload_Failure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.SignIn(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	f.idp.lookupErr = fmt.Errorf("%w: timeout", entities.ErrIdentityNetwork)
	_, err = f.svc.Reload(ctx, sess)
	assert.ErrorIs(t, err, entities.ErrIdentityNetwork)
}

func TestBearerToken_RefreshesExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.SignIn(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	token, err := f.svc.BearerToken(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "id-1", token)
	assert.Equal(t, 0, f.idp.refreshes)

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	token, err = f.svc.TokenSource(sess.ID)(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-refreshed", token)
	assert.Equal(t, 1, f.idp.refreshes)

	stored, err := f.resolver.Current(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "rt-2", stored.RefreshToken)
}

func TestBearerToken_RejectedRefreshTokenRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.SignIn(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	f.idp.refreshErr = fmt.Errorf("firebase: INVALID_REFRESH_TOKEN: %w", entities.ErrInvalidToken)

	_, err = f.svc.BearerToken(ctx, sess.ID)
	assert.ErrorIs(t, err, entities.ErrRefreshTokenRejected)
	assert.Equal(t, "Your session has expired. Please log in again.", UserMessage(err))

	f.idp.refreshErr = fmt.Errorf("%w: timeout", entities.ErrIdentityNetwork)
	_, err = f.svc.BearerToken(ctx, sess.ID)
	assert.ErrorIs(t, err, entities.ErrIdentityNetwork)
	assert.NotErrorIs(t, err, entities.ErrRefreshTokenRejected, "outages are not reported as a rejected token")
}

func TestSignOut_EndsSessionAndResetsContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.SignIn(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, f.convo.Remember(ctx, sess.ID, "customer@x.com"))

	require.NoError(t, f.svc.SignOut(ctx, sess.ID))

	_, err = f.resolver.Current(ctx, sess.ID)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
	assert.Empty(t, f.convo.LastKnownEmail(ctx, sess.ID))
}

func TestGoogleFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	url, err := f.svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, url, "state=st")

	_, err = f.svc.GoogleCallback(ctx, "forged", "code")
	assert.ErrorIs(t, err, entities.ErrOAuthStateMismatch)

	_, err = f.svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	sess, err := f.svc.GoogleCallback(ctx, "st", "abc")
	require.NoError(t, err)
	assert.Equal(t, "google.com", sess.Provider)
	assert.Equal(t, []string{"google-id-for-abc"}, f.idp.googleTokens)
}

func TestExchangeIDToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	verifier := f.svc.verifier.(*fakeVerifier)

	verifier.err = errors.New("bad signature")
	_, err := f.svc.ExchangeIDToken(ctx, "raw", "rt")
	assert.ErrorIs(t, err, entities.ErrInvalidToken)

	verifier.err = nil
	verifier.claims = &firebase.TokenClaims{UID: "uid-1", Email: "a@x.com", EmailVerified: true, ExpiresAt: time.Now().Add(time.Hour)}
	f.idp.account.EmailVerified = true
	sess, err := f.svc.ExchangeIDToken(ctx, "raw", "rt")
	require.NoError(t, err)
	assert.True(t, sess.EmailVerified)
	assert.Equal(t, "raw", sess.IDToken)
	assert.Equal(t, "password", sess.Provider)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Incorrect email or password.", UserMessage(entities.ErrInvalidCredentials))
	assert.Equal(t, "Too many attempts. Please wait a moment and try again.", UserMessage(entities.ErrTooManyAttempts))
	assert.Contains(t, UserMessage(fmt.Errorf("%w: dial tcp", entities.ErrIdentityNetwork)), "couldn't reach")
	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(errors.New("other")))
	assert.Empty(t, UserMessage(nil))
}
