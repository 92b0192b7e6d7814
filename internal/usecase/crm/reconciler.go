package crm

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
	"github.com/johnquangdev/sales-assistant/pkg/metrics"
)

const (
	kindHighlights = "highlights"
	kindSentiment  = "sentiment"
)

// IdentityContext supplies the session-scoped last-known customer email
type IdentityContext interface {
	LastKnownEmail(ctx context.Context, sessionID uuid.UUID) string
	Remember(ctx context.Context, sessionID uuid.UUID, email string) error
}

// Input is one observation of the conversation panel
type Input struct {
	Customer   *entities.CustomerRecord
	Highlights entities.HighlightSet
	Sentiment  *entities.SentimentRecord
	Loading    bool
}

// View is what the panel shows after an observation
type View struct {
	Email           string                    `json:"email,omitempty"`
	Highlights      entities.HighlightSet     `json:"highlights"`
	Sentiment       *entities.SentimentRecord `json:"sentiment,omitempty"`
	HighlightsSaved bool                      `json:"highlights_saved"`
	SentimentSaved  bool                      `json:"sentiment_saved"`
	FetchFailed     bool                      `json:"fetch_failed"`
	PersistFailed   bool                      `json:"persist_failed"`
	Closed          bool                      `json:"closed,omitempty"`

	FetchErr   error `json:"-"`
	PersistErr error `json:"-"`
}

type highlightWrite struct {
	email string
	body  entities.HighlightSet
}

type sentimentWrite struct {
	email string
	body  entities.SentimentRecord
}

// Reconciler merges the current turn's highlights with the stored ones and
// writes highlights and sentiment to the CRM at most once per distinct
// content. State is guarded by mu; network calls run outside it.
type Reconciler struct {
	sessionID uuid.UUID
	store     repositories.CRMStore
	identity  IdentityContext
	logger    *zap.Logger

	// lifecycle is held for reading while the customer email is remembered
	// and for writing by Close, so nothing is remembered after Close returns
	lifecycle sync.RWMutex

	mu     sync.Mutex
	closed bool

	email      string
	highlights entities.HighlightSet
	sentiment  *entities.SentimentRecord
	loading    bool
	observed   bool

	highlightsSaved bool
	sentimentSaved  bool

	// writes currently on the wire, keyed by content
	highlightsInFlight *highlightWrite
	sentimentInFlight  *sentimentWrite

	// inputs of the most recent fetch
	fetchGen        uint64
	fetchEmail      string
	fetchHighlights entities.HighlightSet

	stored      entities.HighlightSet
	storedEmail string
	hasStored   bool

	fetchErr   error
	persistErr error
}

// NewReconciler creates a reconciler for one conversation in a web session
func NewReconciler(sessionID uuid.UUID, store repositories.CRMStore, identity IdentityContext, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		sessionID: sessionID,
		store:     store,
		identity:  identity,
		logger:    logger,
	}
}

type plan struct {
	fetch      bool
	fetchGen   uint64
	email      string
	highlights *highlightWrite
	sentiment  *sentimentWrite
}

// Observe records the inputs of one render, runs any fetch or write they
// call for and returns the resulting view
func (r *Reconciler) Observe(ctx context.Context, in Input) View {
	r.lifecycle.RLock()
	r.mu.Lock()
	if r.closed {
		v := r.viewLocked()
		r.mu.Unlock()
		r.lifecycle.RUnlock()
		return v
	}
	r.mu.Unlock()
	email := r.resolveEmail(ctx, in.Customer)
	r.lifecycle.RUnlock()

	r.mu.Lock()
	if r.closed {
		v := r.viewLocked()
		r.mu.Unlock()
		return v
	}

	if r.observed && (email != r.email ||
		!in.Highlights.Equal(r.highlights) ||
		!in.Sentiment.Equal(r.sentiment)) {
		r.highlightsSaved = false
		r.sentimentSaved = false
	}
	r.email = email
	r.highlights = in.Highlights
	r.sentiment = in.Sentiment.Clone()
	r.loading = in.Loading
	r.observed = true

	p := plan{email: email}
	if email != "" && !in.Highlights.IsEmpty() &&
		(email != r.fetchEmail || !in.Highlights.Equal(r.fetchHighlights)) {
		p.fetch = true
		p.fetchGen = r.beginFetchLocked(email)
	}
	if !r.loading {
		p.highlights = r.claimHighlightsLocked(false)
		p.sentiment = r.claimSentimentLocked(false)
	}
	r.mu.Unlock()

	r.run(ctx, p)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// SaveNow writes the current highlights and sentiment regardless of what
// was saved before, then refetches the merged view. Kinds already being
// written with identical content are not written twice.
func (r *Reconciler) SaveNow(ctx context.Context) (View, error) {
	r.mu.Lock()
	if r.closed {
		v := r.viewLocked()
		r.mu.Unlock()
		return v, nil
	}
	email := r.email
	r.mu.Unlock()

	if email == "" {
		email = r.identity.LastKnownEmail(ctx, r.sessionID)
		if email == "" {
			return r.View(), entities.ErrNoCustomerEmail
		}
	}

	r.mu.Lock()
	if r.closed {
		v := r.viewLocked()
		r.mu.Unlock()
		return v, nil
	}
	r.email = email
	p := plan{
		email:      email,
		highlights: r.claimHighlightsLocked(true),
		sentiment:  r.claimSentimentLocked(true),
	}
	r.mu.Unlock()

	hErr, sErr := r.persist(ctx, p)

	if p.highlights != nil && hErr == nil {
		r.mu.Lock()
		refetch := !r.closed
		var gen uint64
		if refetch {
			gen = r.beginFetchLocked(email)
		}
		r.mu.Unlock()
		if refetch {
			r.fetch(ctx, email, gen)
		}
	}

	v := r.View()
	if hErr != nil {
		return v, hErr
	}
	return v, sErr
}

// View returns the current view without triggering any work
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// Close drops any result that arrives afterwards. Safe to call more than once.
func (r *Reconciler) Close() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Closed reports whether Close was called
func (r *Reconciler) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Reconciler) resolveEmail(ctx context.Context, customer *entities.CustomerRecord) string {
	if email := customer.NormalizedEmail(); email != "" {
		if err := r.identity.Remember(ctx, r.sessionID, email); err != nil {
			r.logger.Warn("crm.context.remember_failed", zap.String("session_id", r.sessionID.String()), zap.Error(err))
		}
		return email
	}
	return r.identity.LastKnownEmail(ctx, r.sessionID)
}

func (r *Reconciler) beginFetchLocked(email string) uint64 {
	r.fetchGen++
	r.fetchEmail = email
	r.fetchHighlights = r.highlights
	return r.fetchGen
}

// claimHighlightsLocked marks the current highlights as in flight and
// returns the write to perform, or nil when no write is due
func (r *Reconciler) claimHighlightsLocked(force bool) *highlightWrite {
	if r.email == "" || r.highlights.IsEmpty() {
		return nil
	}
	if r.highlightsSaved && !force {
		return nil
	}
	if w := r.highlightsInFlight; w != nil && w.email == r.email && w.body.Equal(r.highlights) {
		return nil
	}
	w := &highlightWrite{email: r.email, body: r.highlights}
	r.highlightsInFlight = w
	return w
}

func (r *Reconciler) claimSentimentLocked(force bool) *sentimentWrite {
	if r.email == "" || !r.sentiment.HasColor() {
		return nil
	}
	if r.sentimentSaved && !force {
		return nil
	}
	if w := r.sentimentInFlight; w != nil && w.email == r.email && w.body == *r.sentiment {
		return nil
	}
	w := &sentimentWrite{email: r.email, body: *r.sentiment}
	r.sentimentInFlight = w
	return w
}

func (r *Reconciler) run(ctx context.Context, p plan) {
	if p.fetch {
		r.fetch(ctx, p.email, p.fetchGen)
	}
	_, _ = r.persist(ctx, p)
}

func (r *Reconciler) fetch(ctx context.Context, email string, gen uint64) {
	stored, err := r.store.GetHighlights(ctx, email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.fetchGen {
		return
	}
	if err != nil {
		metrics.CRMFetchesTotal.WithLabelValues("error").Inc()
		r.logger.Warn("crm.fetch.failed",
			zap.String("session_id", r.sessionID.String()),
			zap.String("email", email),
			zap.Error(err),
		)
		r.fetchErr = fmt.Errorf("%w: %v", entities.ErrCRMFetchFailed, err)
		r.hasStored = false
		return
	}
	metrics.CRMFetchesTotal.WithLabelValues("success").Inc()
	r.fetchErr = nil
	r.stored = stored
	r.storedEmail = email
	r.hasStored = true
}

func (r *Reconciler) persist(ctx context.Context, p plan) (hErr, sErr error) {
	if w := p.highlights; w != nil {
		err := r.store.SaveHighlights(ctx, w.email, w.body)
		hErr = r.completeHighlights(w, err)
	}
	if w := p.sentiment; w != nil {
		err := r.store.SaveSentiment(ctx, w.email, w.body)
		sErr = r.completeSentiment(w, err)
	}
	return hErr, sErr
}

func (r *Reconciler) completeHighlights(w *highlightWrite, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.highlightsInFlight == w {
		r.highlightsInFlight = nil
	}
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", entities.ErrCRMPersistFailed, kindHighlights, err)
		r.recordPersistFailureLocked(kindHighlights, w.email, err)
		return err
	}
	metrics.CRMPersistsTotal.WithLabelValues(kindHighlights, "success").Inc()
	if r.closed {
		return nil
	}
	if r.email == w.email && r.highlights.Equal(w.body) {
		r.highlightsSaved = true
		r.persistErr = nil
	}
	return nil
}

func (r *Reconciler) completeSentiment(w *sentimentWrite, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sentimentInFlight == w {
		r.sentimentInFlight = nil
	}
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", entities.ErrCRMPersistFailed, kindSentiment, err)
		r.recordPersistFailureLocked(kindSentiment, w.email, err)
		return err
	}
	metrics.CRMPersistsTotal.WithLabelValues(kindSentiment, "success").Inc()
	if r.closed {
		return nil
	}
	if r.email == w.email && r.sentiment != nil && *r.sentiment == w.body {
		r.sentimentSaved = true
		r.persistErr = nil
	}
	return nil
}

func (r *Reconciler) recordPersistFailureLocked(kind, email string, err error) {
	metrics.CRMPersistsTotal.WithLabelValues(kind, "error").Inc()
	r.logger.Warn("crm.persist.failed",
		zap.String("session_id", r.sessionID.String()),
		zap.String("kind", kind),
		zap.String("email", email),
		zap.Error(err),
	)
	if !r.closed {
		r.persistErr = err
	}
}

func (r *Reconciler) viewLocked() View {
	merged := r.highlights
	if r.hasStored && r.storedEmail == r.email && r.email != "" {
		merged = r.stored.Merge(r.highlights)
	}
	return View{
		Email:           r.email,
		Highlights:      merged,
		Sentiment:       r.sentiment.Clone(),
		HighlightsSaved: r.highlightsSaved,
		SentimentSaved:  r.sentimentSaved,
		FetchFailed:     r.fetchErr != nil,
		PersistFailed:   r.persistErr != nil,
		Closed:          r.closed,
		FetchErr:        r.fetchErr,
		PersistErr:      r.persistErr,
	}
}
