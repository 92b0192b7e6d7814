package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/pkg/config"
)

// Client calls the sales assistant backend API on behalf of a signed-in user.
// Every call carries the user's Firebase ID token as bearer.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a backend API client
func NewClient(cfg *config.BackendConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{http: c, baseURL: base}
}

// BaseURL returns the backend root, used by the assistant reverse proxy
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusError is a non-2xx backend response
type StatusError struct {
	Status int
	Body   string
}

// Error implements error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// Unwrap maps auth failures onto domain errors
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return entities.ErrUnauthorized
	case http.StatusForbidden:
		return entities.ErrForbidden
	}
	return nil
}

// WhoAmI returns the backend's identity record, including the role
func (c *Client) WhoAmI(ctx context.Context, token string) (*entities.Identity, error) {
	var out entities.Identity
	if err := c.do(ctx, token, http.MethodGet, "/whoami", nil, nil, &out); err != nil {
		return nil, err
	}
	if !out.Role.IsValid() {
		out.Role = entities.RoleRep
	}
	return &out, nil
}

// UpdateProfile pushes profile fields to the backend
func (c *Client) UpdateProfile(ctx context.Context, token string, fields entities.ProfileFields) error {
	return c.do(ctx, token, http.MethodPut, "/profile", nil, fields, nil)
}

// SyncCRM asks the backend to run a HubSpot sync for the user
func (c *Client) SyncCRM(ctx context.Context, token string) error {
	return c.do(ctx, token, http.MethodPost, "/hubspot/sync", nil, map[string]interface{}{}, nil)
}

type highlightsPayload struct {
	Email      string                `json:"email"`
	Highlights entities.HighlightSet `json:"highlights"`
}

type sentimentPayload struct {
	Email     string                   `json:"email"`
	Sentiment entities.SentimentRecord `json:"sentiment"`
}

// GetHighlights returns the stored highlights for a contact. A contact
// without stored highlights yields an empty set.
func (c *Client) GetHighlights(ctx context.Context, token, email string) (entities.HighlightSet, error) {
	var out struct {
		Highlights *entities.HighlightSet `json:"highlights"`
	}
	err := c.do(ctx, token, http.MethodGet, "/hubspot/highlights", map[string]string{"email": email}, nil, &out)
	if err != nil {
		var se *StatusError
		if asStatus(err, &se) && se.Status == http.StatusNotFound {
			return entities.HighlightSet{}, nil
		}
		return entities.HighlightSet{}, err
	}
	if out.Highlights == nil {
		return entities.HighlightSet{}, nil
	}
	return *out.Highlights, nil
}

// SaveHighlights persists highlights for a contact
func (c *Client) SaveHighlights(ctx context.Context, token, email string, h entities.HighlightSet) error {
	return c.do(ctx, token, http.MethodPost, "/hubspot/highlights", nil, highlightsPayload{Email: email, Highlights: h}, nil)
}

// SaveSentiment persists a sentiment classification for a contact
func (c *Client) SaveSentiment(ctx context.Context, token, email string, s entities.SentimentRecord) error {
	return c.do(ctx, token, http.MethodPost, "/hubspot/sentiment", nil, sentimentPayload{Email: email, Sentiment: s}, nil)
}

func (c *Client) do(ctx context.Context, token, method, path string, query map[string]string, body, out interface{}) error {
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return &StatusError{Status: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("failed to decode backend response: %w", err)
		}
	}
	return nil
}
