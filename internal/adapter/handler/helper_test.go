package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

func TestHandleError_MapsAuthFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode string
	}{
		{
			name:     "rejected refresh token",
			err:      fmt.Errorf("%w: %w", entities.ErrRefreshTokenRejected, entities.ErrInvalidToken),
			wantHTTP: http.StatusUnauthorized,
			wantCode: "AUTH_INVALID_REFRESH_TOKEN",
		},
		{
			name:     "invalid id token",
			err:      fmt.Errorf("verify: %w", entities.ErrInvalidToken),
			wantHTTP: http.StatusUnauthorized,
			wantCode: "AUTH_INVALID_TOKEN",
		},
		{
			name:     "no refresh token",
			err:      entities.ErrSessionExpired,
			wantHTTP: http.StatusUnauthorized,
			wantCode: "AUTH_TOKEN_EXPIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/session", nil), rec)

			_ = HandleError(zap.NewNop(), c, tt.err)

			assert.Equal(t, tt.wantHTTP, rec.Code)
			env := decode(t, rec, nil)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}
