package crm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

type savedHighlights struct {
	email string
	body  entities.HighlightSet
}

type fakeStore struct {
	mu sync.Mutex

	stored   map[string]entities.HighlightSet
	fetchErr error
	saveErr  error

	fetches        int
	highlightSaves []savedHighlights
	sentimentSaves []entities.SentimentRecord

	// when set, writes block until released
	gate    chan struct{}
	entered chan struct{}

	// called after GetHighlights has read its result, before returning
	onFetch func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{stored: map[string]entities.HighlightSet{}}
}

func (f *fakeStore) GetHighlights(_ context.Context, email string) (entities.HighlightSet, error) {
	f.mu.Lock()
	f.fetches++
	h, err := f.stored[email], f.fetchErr
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return h, err
}

func (f *fakeStore) SaveHighlights(_ context.Context, email string, h entities.HighlightSet) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.highlightSaves = append(f.highlightSaves, savedHighlights{email: email, body: h})
	return nil
}

func (f *fakeStore) SaveSentiment(_ context.Context, _ string, s entities.SentimentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sentimentSaves = append(f.sentimentSaves, s)
	return nil
}

func (f *fakeStore) highlightWrites() []savedHighlights {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]savedHighlights(nil), f.highlightSaves...)
}

func (f *fakeStore) sentimentWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sentimentSaves)
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type memIdentity struct {
	mu     sync.Mutex
	emails map[uuid.UUID]string
}

func newMemIdentity() *memIdentity {
	return &memIdentity{emails: map[uuid.UUID]string{}}
}

func (m *memIdentity) LastKnownEmail(_ context.Context, id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emails[id]
}

func (m *memIdentity) Remember(_ context.Context, id uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[id] = email
	return nil
}

func customer(email string) *entities.CustomerRecord {
	return &entities.CustomerRecord{Name: "Ann", Email: email}
}

func newTestReconciler(store *fakeStore) *Reconciler {
	return NewReconciler(uuid.New(), store, newMemIdentity(), zap.NewNop())
}

func TestObserve_EndToEndSinglePersist(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)

	v := r.Observe(context.Background(), Input{
		Customer:   customer("a@x.com"),
		Highlights: entities.HighlightSet{Budget: "$10k"},
	})

	writes := store.highlightWrites()
	require.Len(t, writes, 1)
	assert.Equal(t, "a@x.com", writes[0].email)
	assert.Equal(t, entities.HighlightSet{Budget: "$10k"}, writes[0].body)
	assert.True(t, v.HighlightsSaved)
	assert.False(t, v.PersistFailed)
}

func TestObserve_SameContentWritesOnce(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)
	ctx := context.Background()

	r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}})
	// a new value holding identical data
	v := r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}})

	assert.Len(t, store.highlightWrites(), 1)
	assert.True(t, v.HighlightsSaved)
	assert.Equal(t, 1, store.fetchCount(), "unchanged inputs do not refetch")
}

func TestObserve_FieldChangeResetsAndWritesAgain(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)
	ctx := context.Background()
	sentiment := &entities.SentimentRecord{Color: entities.SentimentGreen, Sentiment: "positive", Score: 0.9}

	r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}, Sentiment: sentiment})
	require.Len(t, store.highlightWrites(), 1)
	require.Equal(t, 1, store.sentimentWrites())

	v := r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A", Timeline: "Q3"}, Sentiment: sentiment.Clone()})

	assert.Len(t, store.highlightWrites(), 2)
	assert.Equal(t, 2, store.sentimentWrites(), "a structural change clears both saved flags")
	assert.True(t, v.HighlightsSaved)
	assert.True(t, v.SentimentSaved)
}

func TestObserve_MergeCurrentOverStored(t *testing.T) {
	store := newFakeStore()
	store.stored["a@x.com"] = entities.HighlightSet{Budget: "A", Timeline: "B"}
	r := newTestReconciler(store)

	v := r.Observe(context.Background(), Input{
		Customer:   customer("a@x.com"),
		Highlights: entities.HighlightSet{Budget: "C"},
	})

	assert.Equal(t, entities.HighlightSet{Budget: "C", Timeline: "B"}, v.Highlights)
	assert.False(t, v.FetchFailed)
}

func TestObserve_FetchFailureDegradesToCurrent(t *testing.T) {
	store := newFakeStore()
	store.fetchErr = errors.New("hubspot down")
	r := newTestReconciler(store)
	current := entities.HighlightSet{Budget: "$10k", Objections: "price"}

	var v View
	require.NotPanics(t, func() {
		v = r.Observe(context.Background(), Input{Customer: customer("a@x.com"), Highlights: current})
	})

	assert.Equal(t, current, v.Highlights)
	assert.True(t, v.FetchFailed)
	assert.ErrorIs(t, v.FetchErr, entities.ErrCRMFetchFailed)

	r.Observe(context.Background(), Input{Customer: customer("a@x.com"), Highlights: current})
	assert.Equal(t, 1, store.fetchCount(), "no retry without an input change")
}

func TestObserve_PersistFailureStaysUnsaved(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("timeout")
	r := newTestReconciler(store)
	ctx := context.Background()
	in := Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}}

	v := r.Observe(ctx, in)
	assert.False(t, v.HighlightsSaved)
	assert.True(t, v.PersistFailed)
	assert.ErrorIs(t, v.PersistErr, entities.ErrCRMPersistFailed)

	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()

	v = r.Observe(ctx, in)
	assert.True(t, v.HighlightsSaved, "the next render retries an unsaved write")
	assert.False(t, v.PersistFailed)
	assert.Len(t, store.highlightWrites(), 1)
}

func TestObserve_LoadingDefersPersist(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)
	ctx := context.Background()

	v := r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}, Loading: true})
	assert.Empty(t, store.highlightWrites())
	assert.False(t, v.HighlightsSaved)

	r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}})
	assert.Len(t, store.highlightWrites(), 1)
}

func TestObserve_NothingWithoutEmailOrContent(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)
	ctx := context.Background()

	r.Observe(ctx, Input{Highlights: entities.HighlightSet{Budget: "A"}})
	r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "  "}})
	r.Observe(ctx, Input{Customer: customer("a@x.com"), Sentiment: &entities.SentimentRecord{Sentiment: "neutral"}})

	assert.Empty(t, store.highlightWrites())
	assert.Equal(t, 0, store.sentimentWrites())
	assert.Equal(t, 0, store.fetchCount())
}

func TestObserve_SentimentWrittenOncePerValue(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)
	ctx := context.Background()

	in := Input{Customer: customer("a@x.com"), Sentiment: &entities.SentimentRecord{Color: entities.SentimentRed, Score: 0.2}}
	r.Observe(ctx, in)
	in.Sentiment = &entities.SentimentRecord{Color: entities.SentimentRed, Score: 0.2}
	v := r.Observe(ctx, in)

	assert.Equal(t, 1, store.sentimentWrites())
	assert.True(t, v.SentimentSaved)
}

func TestObserve_IdentityFallbackToLastKnownEmail(t *testing.T) {
	store := newFakeStore()
	identity := newMemIdentity()
	sessionID := uuid.New()
	ctx := context.Background()

	first := NewReconciler(sessionID, store, identity, zap.NewNop())
	first.Observe(ctx, Input{Customer: customer("A@x.com")})
	first.Close()

	// a fresh reconciler in the same session without a customer record
	second := NewReconciler(sessionID, store, identity, zap.NewNop())
	v := second.Observe(ctx, Input{Highlights: entities.HighlightSet{Timeline: "next week"}})

	assert.Equal(t, "a@x.com", v.Email)
	writes := store.highlightWrites()
	require.Len(t, writes, 1)
	assert.Equal(t, "a@x.com", writes[0].email)

	other := NewReconciler(uuid.New(), store, identity, zap.NewNop())
	v = other.Observe(ctx, Input{Highlights: entities.HighlightSet{Timeline: "x"}})
	assert.Empty(t, v.Email, "last-known email does not leak across sessions")
}

func TestObserve_ConcurrentSameContentSingleWrite(t *testing.T) {
	store := newFakeStore()
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 8)
	r := newTestReconciler(store)
	in := Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Observe(context.Background(), in)
	}()

	// first write is on the wire; the rest must see it in flight
	<-store.entered
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Observe(context.Background(), in)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	assert.Len(t, store.highlightWrites(), 1)
	assert.True(t, r.View().HighlightsSaved)
}

func TestObserve_CompletionAfterContentChangeNotMarkedSaved(t *testing.T) {
	store := newFakeStore()
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 8)
	r := newTestReconciler(store)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}, Loading: false})
		close(done)
	}()
	<-store.entered

	// content changes while the first write is pending; loading holds the new write back
	r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "B"}, Loading: true})
	close(store.gate)
	<-done

	v := r.View()
	assert.False(t, v.HighlightsSaved, "a write of stale content does not mark current content saved")
	assert.Equal(t, "B", v.Highlights.Budget)
}

func TestObserve_FetchMergesLatestHighlights(t *testing.T) {
	store := newFakeStore()
	store.stored["a@x.com"] = entities.HighlightSet{Budget: "stored", Timeline: "T"}
	r := newTestReconciler(store)
	ctx := context.Background()

	var once sync.Once
	store.onFetch = func() {
		once.Do(func() {
			// newer input lands while the fetch is outstanding
			r.mu.Lock()
			r.highlights = entities.HighlightSet{Budget: "newer"}
			r.mu.Unlock()
		})
	}

	r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "old"}, Loading: true})
	v := r.View()
	assert.Equal(t, entities.HighlightSet{Budget: "newer", Timeline: "T"}, v.Highlights)
}

func TestClose_DropsLateCompletions(t *testing.T) {
	store := newFakeStore()
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	r := newTestReconciler(store)

	done := make(chan View)
	go func() {
		done <- r.Observe(context.Background(), Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}})
	}()
	<-store.entered
	r.Close()
	close(store.gate)
	v := <-done

	assert.True(t, v.Closed)
	assert.False(t, v.HighlightsSaved)

	v = r.Observe(context.Background(), Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "B"}})
	assert.Len(t, store.highlightWrites(), 1, "a closed reconciler starts no new work")
	assert.True(t, v.Closed)
}

type gatedIdentity struct {
	*memIdentity
	gate    chan struct{}
	entered chan struct{}
}

func (g *gatedIdentity) Remember(ctx context.Context, id uuid.UUID, email string) error {
	g.entered <- struct{}{}
	<-g.gate
	return g.memIdentity.Remember(ctx, id, email)
}

func TestObserve_ClosedReconcilerDoesNotRememberEmail(t *testing.T) {
	identity := newMemIdentity()
	sessionID := uuid.New()
	r := NewReconciler(sessionID, newFakeStore(), identity, zap.NewNop())
	r.Close()

	v := r.Observe(context.Background(), Input{Customer: customer("late@x.com")})

	assert.True(t, v.Closed)
	assert.Empty(t, identity.LastKnownEmail(context.Background(), sessionID))
}

func TestClose_WaitsForInFlightRemember(t *testing.T) {
	identity := &gatedIdentity{memIdentity: newMemIdentity(), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	sessionID := uuid.New()
	ctx := context.Background()
	r := NewReconciler(sessionID, newFakeStore(), identity, zap.NewNop())

	observed := make(chan View)
	go func() { observed <- r.Observe(ctx, Input{Customer: customer("a@x.com")}) }()
	<-identity.entered

	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while the email was still being remembered")
	case <-time.After(30 * time.Millisecond):
	}

	close(identity.gate)
	<-closed
	v := <-observed
	assert.True(t, v.Closed)

	// sign-out clears the context after the reconcilers are closed
	identity.emails = map[uuid.UUID]string{}
	r.Observe(ctx, Input{Customer: customer("b@x.com")})
	assert.Empty(t, identity.LastKnownEmail(ctx, sessionID))
}

func TestSaveNow_RewritesAndRefetches(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)
	ctx := context.Background()

	r.Observe(ctx, Input{
		Customer:   customer("a@x.com"),
		Highlights: entities.HighlightSet{Budget: "A"},
		Sentiment:  &entities.SentimentRecord{Color: entities.SentimentYellow},
	})
	require.Len(t, store.highlightWrites(), 1)
	fetchesBefore := store.fetchCount()

	store.mu.Lock()
	store.stored["a@x.com"] = entities.HighlightSet{Budget: "A", ImportantInfo: "decision maker"}
	store.mu.Unlock()

	v, err := r.SaveNow(ctx)
	require.NoError(t, err)
	assert.Len(t, store.highlightWrites(), 2, "manual save ignores the saved flag")
	assert.Equal(t, 2, store.sentimentWrites())
	assert.Equal(t, fetchesBefore+1, store.fetchCount())
	assert.Equal(t, "decision maker", v.Highlights.ImportantInfo)
	assert.True(t, v.HighlightsSaved)
}

func TestSaveNow_WithoutEmail(t *testing.T) {
	r := newTestReconciler(newFakeStore())
	r.Observe(context.Background(), Input{Highlights: entities.HighlightSet{Budget: "A"}})

	_, err := r.SaveNow(context.Background())
	assert.ErrorIs(t, err, entities.ErrNoCustomerEmail)
}

func TestSaveNow_Failure(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)
	ctx := context.Background()
	r.Observe(ctx, Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}, Loading: true})

	store.mu.Lock()
	store.saveErr = errors.New("boom")
	store.mu.Unlock()

	v, err := r.SaveNow(ctx)
	assert.ErrorIs(t, err, entities.ErrCRMPersistFailed)
	assert.True(t, v.PersistFailed)
	assert.False(t, v.HighlightsSaved)
}
