package firebase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/pkg/config"
)

// Client talks to the Firebase Auth REST API
type Client struct {
	identity    *resty.Client
	secureToken *resty.Client
	apiKey      string
	continueURL string
}

// NewClient creates a Firebase Auth client from configuration
func NewClient(cfg *config.FirebaseConfig) *Client {
	identity := resty.New().
		SetBaseURL(cfg.IdentityBaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	secureToken := resty.New().
		SetBaseURL(cfg.SecureTokenBaseURL).
		SetTimeout(15 * time.Second)

	return &Client{
		identity:    identity,
		secureToken: secureToken,
		apiKey:      cfg.APIKey,
		continueURL: cfg.VerifyContinueURL,
	}
}

// AuthResult is the credential returned by every sign-in style call
type AuthResult struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
	IDToken       string
	RefreshToken  string
	ExpiresIn     time.Duration
}

// Account is the identity record returned by accounts:lookup
type Account struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
	Disabled      bool
	CreatedAt     time.Time
}

type signInResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
}

func (r signInResponse) result() *AuthResult {
	return &AuthResult{
		UID:           r.LocalID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		EmailVerified: r.EmailVerified,
		IDToken:       r.IDToken,
		RefreshToken:  r.RefreshToken,
		ExpiresIn:     parseSeconds(r.ExpiresIn),
	}
}

// SignUp creates an email/password account
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	var out signInResponse
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	if err := c.post(ctx, "/accounts:signUp", body, &out); err != nil {
		return nil, err
	}
	return out.result(), nil
}

// SignInWithPassword signs in an email/password account
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	var out signInResponse
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	if err := c.post(ctx, "/accounts:signInWithPassword", body, &out); err != nil {
		return nil, err
	}
	return out.result(), nil
}

// SignInWithGoogle exchanges a Google ID token for a Firebase session
func (c *Client) SignInWithGoogle(ctx context.Context, googleIDToken, requestURI string) (*AuthResult, error) {
	var out signInResponse
	postBody := url.Values{}
	postBody.Set("id_token", googleIDToken)
	postBody.Set("providerId", "google.com")
	body := map[string]interface{}{
		"postBody":            postBody.Encode(),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	if err := c.post(ctx, "/accounts:signInWithIdp", body, &out); err != nil {
		return nil, err
	}
	return out.result(), nil
}

// Lookup reloads the account record behind an ID token
func (c *Client) Lookup(ctx context.Context, idToken string) (*Account, error) {
	var out struct {
		Users []struct {
			LocalID       string `json:"localId"`
			Email         string `json:"email"`
			DisplayName   string `json:"displayName"`
			EmailVerified bool   `json:"emailVerified"`
			Disabled      bool   `json:"disabled"`
			CreatedAt     string `json:"createdAt"`
		} `json:"users"`
	}
	if err := c.post(ctx, "/accounts:lookup", map[string]interface{}{"idToken": idToken}, &out); err != nil {
		return nil, err
	}
	if len(out.Users) == 0 {
		return nil, &APIError{Status: 400, Code: "USER_NOT_FOUND"}
	}
	u := out.Users[0]
	return &Account{
		UID:           u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
		Disabled:      u.Disabled,
		CreatedAt:     parseMillis(u.CreatedAt),
	}, nil
}

// SendVerificationEmail asks Firebase to email a verification link
func (c *Client) SendVerificationEmail(ctx context.Context, idToken string) error {
	body := map[string]interface{}{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	}
	if c.continueURL != "" {
		body["continueUrl"] = c.continueURL
	}
	return c.post(ctx, "/accounts:sendOobCode", body, nil)
}

// UpdateDisplayName sets the account's display name
func (c *Client) UpdateDisplayName(ctx context.Context, idToken, displayName string) error {
	body := map[string]interface{}{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}
	return c.post(ctx, "/accounts:update", body, nil)
}

// RefreshIDToken trades a refresh token for a fresh ID token
func (c *Client) RefreshIDToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	var env errorEnvelope

	resp, err := c.secureToken.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(&out).
		SetError(&env).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrIdentityNetwork, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), env)
	}

	return &AuthResult{
		UID:          out.UserID,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    parseSeconds(out.ExpiresIn),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var env errorEnvelope
	req := c.identity.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetError(&env)
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrIdentityNetwork, err)
	}
	if resp.IsError() {
		return newAPIError(resp.StatusCode(), env)
	}
	return nil
}

func parseSeconds(s string) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return time.Hour
	}
	return time.Duration(n) * time.Second
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
