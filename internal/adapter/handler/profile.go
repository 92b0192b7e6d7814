package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/errors"
	profileDTO "github.com/johnquangdev/sales-assistant/internal/adapter/dto/profile"
	"github.com/johnquangdev/sales-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	httpmw "github.com/johnquangdev/sales-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/sales-assistant/internal/usecase/profile"
	"github.com/johnquangdev/sales-assistant/pkg/validator"
)

// maxAvatarSize bounds avatar uploads
const maxAvatarSize = 5 << 20

// ProfileService reads and writes user profiles
type ProfileService interface {
	Get(ctx context.Context, sess *entities.Session) (*profile.View, error)
	Update(ctx context.Context, sess *entities.Session, token profile.TokenFunc, fields entities.ProfileFields) (*profile.UpdateResult, error)
	UploadAvatar(ctx context.Context, sess *entities.Session, token profile.TokenFunc, filename, contentType string, reader io.Reader, size int64) (*profile.UpdateResult, error)
	AvatarsEnabled() bool
}

// TokenSources binds bearer tokens to a web session
type TokenSources interface {
	TokenSource(sessionID uuid.UUID) func(ctx context.Context) (string, error)
}

// Profile handles the profile endpoints
type Profile struct {
	profiles ProfileService
	tokens   TokenSources
	logger   *zap.Logger
}

// NewProfile creates a new profile handler
func NewProfile(profiles ProfileService, tokens TokenSources, logger *zap.Logger) *Profile {
	return &Profile{
		profiles: profiles,
		tokens:   tokens,
		logger:   logger,
	}
}

// Get returns the signed-in user's profile
func (h *Profile) Get(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	v, err := h.profiles.Get(c.Request().Context(), sess)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToProfileResponse(v))
}

// Update applies a partial profile update
func (h *Profile) Update(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req profileDTO.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(validator.Message(err)))
	}

	fields := presenter.ToProfileFields(&req)
	if fields.IsEmpty() {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("no profile fields to update"))
	}

	res, err := h.profiles.Update(c.Request().Context(), sess, h.tokens.TokenSource(sess.ID), fields)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return h.respondUpdate(c, sess, res)
}

// UploadAvatar stores a new avatar image
func (h *Profile) UploadAvatar(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}
	if !h.profiles.AvatarsEnabled() {
		return HandleError(h.logger, c, errors.AppError{
			HTTPCode: http.StatusServiceUnavailable,
			Code:     errors.ErrorCode_INTEGRATION_STORAGE_FAILED,
			Message:  "Avatar uploads are not configured",
		})
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("avatar file is required"))
	}
	if file.Size <= 0 || file.Size > maxAvatarSize {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("avatar must be between 1 byte and 5 MB"))
	}
	contentType := file.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("avatar must be an image"))
	}

	src, err := file.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}
	defer src.Close()

	res, err := h.profiles.UploadAvatar(c.Request().Context(), sess, h.tokens.TokenSource(sess.ID), file.Filename, contentType, src, file.Size)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return h.respondUpdate(c, sess, res)
}

func (h *Profile) respondUpdate(c echo.Context, sess *entities.Session, res *profile.UpdateResult) error {
	v, err := h.profiles.Get(c.Request().Context(), sess)
	if err != nil {
		v = &profile.View{UID: sess.UID, Email: sess.Email, EmailVerified: sess.EmailVerified}
	}
	v.Fields.Apply(res.Fields)
	return HandleSuccess(h.logger, c, &profileDTO.UpdateProfileResponse{
		Target:  res.Target,
		Profile: *presenter.ToProfileResponse(v),
	})
}
