package profile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
	"github.com/johnquangdev/sales-assistant/pkg/metrics"
)

// Update targets
const (
	TargetBackend       = "backend"
	TargetDocumentStore = "document_store"
)

// Backend is the primary profile store
type Backend interface {
	UpdateProfile(ctx context.Context, token string, fields entities.ProfileFields) error
}

// AvatarStorage stores avatar images and returns their public URL
type AvatarStorage interface {
	UploadAvatar(ctx context.Context, userID, filename, contentType string, reader io.Reader, size int64) (string, error)
}

// TokenFunc returns a bearer token for the signed-in user
type TokenFunc func(ctx context.Context) (string, error)

// View is the profile as shown on the profile page
type View struct {
	UID           string                 `json:"uid"`
	Email         string                 `json:"email"`
	EmailVerified bool                   `json:"email_verified"`
	Fields        entities.ProfileFields `json:"fields"`
}

// UpdateResult reports which store accepted an update
type UpdateResult struct {
	Target string                 `json:"target"`
	Fields entities.ProfileFields `json:"fields"`
}

// Service updates profiles on the backend, falling back to the document store
type Service struct {
	backend Backend
	docs    repositories.ProfileRepository
	avatars AvatarStorage
	logger  *zap.Logger
}

// NewService creates a profile service. docs and avatars may be nil when
// those stores are not configured.
func NewService(backend Backend, docs repositories.ProfileRepository, avatars AvatarStorage, logger *zap.Logger) *Service {
	return &Service{
		backend: backend,
		docs:    docs,
		avatars: avatars,
		logger:  logger,
	}
}

// AvatarsEnabled reports whether avatar uploads are configured
func (s *Service) AvatarsEnabled() bool {
	return s.avatars != nil
}

// Get returns the profile for the session, reading stored fields from the
// document store when it is available
func (s *Service) Get(ctx context.Context, sess *entities.Session) (*View, error) {
	view := &View{
		UID:           sess.UID,
		Email:         sess.Email,
		EmailVerified: sess.EmailVerified,
	}
	if sess.DisplayName != "" {
		name := sess.DisplayName
		view.Fields.DisplayName = &name
	}
	if s.docs == nil {
		return view, nil
	}

	p, err := s.docs.FindByUserID(ctx, sess.UID)
	if err != nil {
		if errors.Is(err, entities.ErrProfileNotFound) {
			return view, nil
		}
		s.logger.Warn("profile.read.failed", zap.String("uid", sess.UID), zap.Error(err))
		return view, nil
	}

	fields, err := p.Fields()
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}
	view.Fields.Apply(fields)
	return view, nil
}

// Update writes fields to the backend. When the backend cannot take the
// write the document store is used instead; only when both fail is the
// error returned.
func (s *Service) Update(ctx context.Context, sess *entities.Session, token TokenFunc, fields entities.ProfileFields) (*UpdateResult, error) {
	if fields.IsEmpty() {
		return nil, entities.ErrInvalidRequest
	}

	backendErr := s.updateBackend(ctx, token, fields)
	if backendErr == nil {
		metrics.ProfileUpdatesTotal.WithLabelValues(TargetBackend, "success").Inc()
		s.mirror(ctx, sess, fields)
		return &UpdateResult{Target: TargetBackend, Fields: fields}, nil
	}
	metrics.ProfileUpdatesTotal.WithLabelValues(TargetBackend, "error").Inc()
	s.logger.Warn("profile.backend.failed", zap.String("uid", sess.UID), zap.Error(backendErr))

	if s.docs == nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrProfileUpdateFailed, backendErr)
	}

	if _, err := s.docs.Merge(ctx, sess.UID, sess.Email, fields); err != nil {
		metrics.ProfileUpdatesTotal.WithLabelValues(TargetDocumentStore, "error").Inc()
		s.logger.Error("profile.fallback.failed", zap.String("uid", sess.UID), zap.Error(err))
		return nil, fmt.Errorf("%w: backend: %v; document store: %v", entities.ErrProfileUpdateFailed, backendErr, err)
	}

	metrics.ProfileUpdatesTotal.WithLabelValues(TargetDocumentStore, "success").Inc()
	s.logger.Info("profile.fallback.saved", zap.String("uid", sess.UID))
	return &UpdateResult{Target: TargetDocumentStore, Fields: fields}, nil
}

// UploadAvatar stores the image and records its URL on the profile
func (s *Service) UploadAvatar(ctx context.Context, sess *entities.Session, token TokenFunc, filename, contentType string, reader io.Reader, size int64) (*UpdateResult, error) {
	if s.avatars == nil {
		return nil, entities.ErrStoreUnavailable
	}

	url, err := s.avatars.UploadAvatar(ctx, sess.UID, filename, contentType, reader, size)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, sess, token, entities.ProfileFields{AvatarURL: &url})
}

func (s *Service) updateBackend(ctx context.Context, token TokenFunc, fields entities.ProfileFields) error {
	bearer, err := token(ctx)
	if err != nil {
		return err
	}
	return s.backend.UpdateProfile(ctx, bearer, fields)
}

// mirror keeps the document store in step with the backend so reads and a
// later fallback start from current values
func (s *Service) mirror(ctx context.Context, sess *entities.Session, fields entities.ProfileFields) {
	if s.docs == nil {
		return
	}
	if _, err := s.docs.Merge(ctx, sess.UID, sess.Email, fields); err != nil {
		s.logger.Warn("profile.mirror.failed", zap.String("uid", sess.UID), zap.Error(err))
	}
}
