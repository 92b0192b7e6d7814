package handler

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/errors"
	crmDTO "github.com/johnquangdev/sales-assistant/internal/adapter/dto/crm"
	"github.com/johnquangdev/sales-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	httpmw "github.com/johnquangdev/sales-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/sales-assistant/internal/usecase/crm"
)

const maxConversationIDLen = 128

// ConversationContext is the session-scoped last-known customer email
type ConversationContext interface {
	LastKnownEmail(ctx context.Context, sessionID uuid.UUID) string
	Reset(ctx context.Context, sessionID uuid.UUID) error
}

// CRMSyncer triggers the backend's CRM sync
type CRMSyncer interface {
	SyncCRM(ctx context.Context, token string) error
}

// CRM handles the CRM panel endpoints. Each observe call is one render of
// the panel for a conversation.
type CRM struct {
	registry *crm.Registry
	convo    ConversationContext
	syncer   CRMSyncer
	tokens   httpmw.BearerSource
	logger   *zap.Logger
}

// NewCRM creates a new CRM handler
func NewCRM(registry *crm.Registry, convo ConversationContext, syncer CRMSyncer, tokens httpmw.BearerSource, logger *zap.Logger) *CRM {
	return &CRM{
		registry: registry,
		convo:    convo,
		syncer:   syncer,
		tokens:   tokens,
		logger:   logger,
	}
}

// Get returns the current panel view of a conversation
func (h *CRM) Get(c echo.Context) error {
	sess, convID, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	rec, ok := h.registry.Lookup(sess.ID, convID)
	if !ok {
		return HandleError(h.logger, c, errors.ErrNotFound("conversation"))
	}
	return HandleSuccess(h.logger, c, presenter.ToPanelResponse(convID, rec.View()))
}

// Observe feeds the current conversation state to the reconciler and
// returns the merged panel view. Fetch and persist failures are reported in
// the view and never fail the request.
func (h *CRM) Observe(c echo.Context) error {
	sess, convID, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req crmDTO.ObserveRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if req.Sentiment.HasColor() && !req.Sentiment.Color.IsValid() {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("sentiment color must be green, yellow or red"))
	}

	rec := h.registry.Get(sess.ID, convID)
	v := rec.Observe(c.Request().Context(), presenter.ToObserveInput(&req))

	if v.FetchErr != nil {
		h.logger.Warn("crm.fetch.degraded",
			zap.String("conversation_id", convID),
			zap.String("email", v.Email),
			zap.Error(v.FetchErr),
		)
	}
	if v.PersistErr != nil {
		h.logger.Warn("crm.persist.failed",
			zap.String("conversation_id", convID),
			zap.String("email", v.Email),
			zap.Error(v.PersistErr),
		)
	}

	return HandleSuccess(h.logger, c, presenter.ToPanelResponse(convID, v))
}

// Save re-persists highlights and sentiment regardless of saved state
func (h *CRM) Save(c echo.Context) error {
	sess, convID, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	rec := h.registry.Get(sess.ID, convID)
	v, err := rec.SaveNow(c.Request().Context())
	if err != nil {
		if stdErrors.Is(err, entities.ErrCRMPersistFailed) {
			return HandleError(h.logger, c, errors.ErrCRMPersistFailed("CRM data", v.Email, err))
		}
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToPanelResponse(convID, v))
}

// Delete closes a conversation's reconciler. Late CRM responses for it are dropped.
func (h *CRM) Delete(c echo.Context) error {
	sess, convID, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	removed := h.registry.Remove(sess.ID, convID)
	return HandleSuccess(h.logger, c, map[string]interface{}{"conversation_id": convID, "removed": removed})
}

// ResetContext forgets the last-known customer email of the web session
func (h *CRM) ResetContext(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}
	if err := h.convo.Reset(c.Request().Context(), sess.ID); err != nil {
		return HandleError(h.logger, c, errors.ErrCacheFailed("reset conversation context", err))
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{"reset": true})
}

// Context returns the last-known customer email of the web session
func (h *CRM) Context(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}
	email := h.convo.LastKnownEmail(c.Request().Context(), sess.ID)
	return HandleSuccess(h.logger, c, map[string]interface{}{"last_known_email": email})
}

// Sync asks the backend to sync the CRM
func (h *CRM) Sync(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	ctx := c.Request().Context()
	token, err := h.tokens.BearerToken(ctx, sess.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.syncer.SyncCRM(ctx, token); err != nil {
		return HandleError(h.logger, c, errors.ErrCRMSyncFailed(err))
	}

	h.logger.Info("crm.sync.triggered", zap.String("uid", sess.UID))
	return HandleSuccess(h.logger, c, map[string]interface{}{"synced": true})
}

func (h *CRM) target(c echo.Context) (*entities.Session, string, error) {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return nil, "", errors.ErrUnauthenticated()
	}
	convID := strings.TrimSpace(c.Param("id"))
	if convID == "" || len(convID) > maxConversationIDLen {
		return nil, "", errors.ErrInvalidArgument("invalid conversation id")
	}
	return sess, convID, nil
}
