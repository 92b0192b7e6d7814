package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/errors"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/pkg/tracing"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging using provided logger.
// Domain errors are mapped to their AppError first.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("trace_id", tracing.GetTraceID(c.Request().Context())),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	// internal error text stays in the logs for server faults
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError maps domain sentinels to the AppError surfaced to clients
func toAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, entities.ErrInvalidCredentials):
		return errors.ErrInvalidCredentials()
	case stdErrors.Is(err, entities.ErrUserDisabled):
		return errors.ErrUserDisabled()
	case stdErrors.Is(err, entities.ErrTooManyAttempts):
		return errors.ErrAuthRateLimited()
	case stdErrors.Is(err, entities.ErrIdentityNetwork):
		return errors.ErrAuthNetwork(err)
	case stdErrors.Is(err, entities.ErrEmailExists):
		return errors.ErrUserAlreadyExists("")
	case stdErrors.Is(err, entities.ErrWeakPassword):
		return errors.ErrWeakPassword()
	case stdErrors.Is(err, entities.ErrRefreshTokenRejected):
		return errors.ErrInvalidRefreshToken()
	case stdErrors.Is(err, entities.ErrInvalidToken):
		return errors.ErrInvalidToken()
	case stdErrors.Is(err, entities.ErrSessionExpired):
		return errors.ErrTokenExpired()
	case stdErrors.Is(err, entities.ErrSessionNotFound), stdErrors.Is(err, entities.ErrUnauthorized):
		return errors.ErrUnauthenticated()
	case stdErrors.Is(err, entities.ErrForbidden):
		return errors.ErrForbidden("Access denied")
	case stdErrors.Is(err, entities.ErrOAuthStateMismatch):
		return errors.ErrOAuthFailed("google", err)
	case stdErrors.Is(err, entities.ErrNoCustomerEmail):
		return errors.ErrCRMNoIdentity()
	case stdErrors.Is(err, entities.ErrCRMFetchFailed):
		return errors.ErrCRMFetchFailed("", err)
	case stdErrors.Is(err, entities.ErrCRMPersistFailed):
		return errors.ErrCRMPersistFailed("CRM data", "", err)
	case stdErrors.Is(err, entities.ErrProfileUpdateFailed):
		return errors.ErrProfileUpdateFailed(err)
	case stdErrors.Is(err, entities.ErrProfileNotFound):
		return errors.ErrNotFound("profile")
	case stdErrors.Is(err, entities.ErrStoreUnavailable):
		return errors.ErrStorageFailed("upload", err)
	case stdErrors.Is(err, entities.ErrInvalidRequest):
		return errors.ErrInvalidArgument("Invalid request")
	}
	return errors.ErrInternal(err)
}
