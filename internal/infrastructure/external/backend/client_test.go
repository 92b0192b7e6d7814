package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestWhoAmI(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/whoami", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uid":"u1","email":"a@x.com","role":"admin"}`))
	})

	id, err := client.WhoAmI(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
}

func TestWhoAmI_UnknownRoleDefaultsToRep(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uid":"u1","email":"a@x.com"}`))
	})

	id, err := client.WhoAmI(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, entities.RoleRep, id.Role)
}

func TestUnauthorizedMapsToDomainError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"bad token"}`))
	})

	err := client.SyncCRM(context.Background(), "tok")
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestCRMStore_RoundTripsThroughEndpoints(t *testing.T) {
	var savedHighlights highlightsPayload
	var savedSentiment sentimentPayload

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/hubspot/highlights":
			assert.Equal(t, "a@x.com", r.URL.Query().Get("email"))
			_, _ = w.Write([]byte(`{"highlights":{"budget":"A","timeline":"B"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/hubspot/highlights":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&savedHighlights))
			_, _ = w.Write([]byte(`{"ok":true}`))
		case r.Method == http.MethodPost && r.URL.Path == "/hubspot/sentiment":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&savedSentiment))
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	store := NewCRMStore(client, func(ctx context.Context) (string, error) { return "tok", nil })
	ctx := context.Background()

	h, err := store.GetHighlights(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entities.HighlightSet{Budget: "A", Timeline: "B"}, h)

	require.NoError(t, store.SaveHighlights(ctx, "a@x.com", entities.HighlightSet{Budget: "$10k"}))
	assert.Equal(t, "a@x.com", savedHighlights.Email)
	assert.Equal(t, "$10k", savedHighlights.Highlights.Budget)

	require.NoError(t, store.SaveSentiment(ctx, "a@x.com", entities.SentimentRecord{Color: entities.SentimentGreen, Score: 0.8}))
	assert.Equal(t, entities.SentimentGreen, savedSentiment.Sentiment.Color)
}

func TestGetHighlights_NotFoundIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	h, err := client.GetHighlights(context.Background(), "tok", "new@x.com")
	require.NoError(t, err)
	assert.True(t, h.IsEmpty())
}

func TestCRMStore_TokenFailure(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	store := NewCRMStore(client, func(ctx context.Context) (string, error) { return "", entities.ErrSessionExpired })
	err := store.SaveHighlights(context.Background(), "a@x.com", entities.HighlightSet{Budget: "x"})
	assert.ErrorIs(t, err, entities.ErrSessionExpired)
	assert.False(t, called)
}
