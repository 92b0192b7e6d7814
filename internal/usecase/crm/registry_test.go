package crm

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/adapter/repository"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/sales-assistant/internal/usecase/session"
)

func newRegistryFixture(t *testing.T) (*Registry, *session.Resolver, *fakeStore) {
	t.Helper()
	kv := cache.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })

	resolver := session.NewResolver(repository.NewSessionRepository(kv), time.Hour, zap.NewNop())
	store := newFakeStore()
	registry := NewRegistry(resolver, func(uuid.UUID) repositories.CRMStore { return store }, newMemIdentity(), zap.NewNop())
	return registry, resolver, store
}

func TestRegistry_GetReturnsSameReconciler(t *testing.T) {
	registry, resolver, _ := newRegistryFixture(t)
	s := entities.NewSession("uid-1", "rep@x.com")
	require.NoError(t, resolver.Establish(context.Background(), s))

	a := registry.Get(s.ID, "conv-1")
	b := registry.Get(s.ID, "conv-1")
	c := registry.Get(s.ID, "conv-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 1, resolver.ObserverCount(s.ID), "one subscription per session")
}

func TestRegistry_SignOutClosesReconcilers(t *testing.T) {
	registry, resolver, _ := newRegistryFixture(t)
	ctx := context.Background()
	s := entities.NewSession("uid-1", "rep@x.com")
	require.NoError(t, resolver.Establish(ctx, s))

	rec := registry.Get(s.ID, "conv-1")
	require.False(t, rec.Closed())

	require.NoError(t, resolver.End(ctx, s.ID))

	assert.True(t, rec.Closed())
	_, ok := registry.Lookup(s.ID, "conv-1")
	assert.False(t, ok)
	assert.Equal(t, 0, resolver.ObserverCount(s.ID))
}

func TestRegistry_UnknownSessionYieldsClosedReconciler(t *testing.T) {
	registry, _, store := newRegistryFixture(t)

	rec := registry.Get(uuid.New(), "conv-1")
	assert.True(t, rec.Closed())

	rec.Observe(context.Background(), Input{Customer: customer("a@x.com"), Highlights: entities.HighlightSet{Budget: "A"}})
	assert.Empty(t, store.highlightWrites())
}

func TestRegistry_Remove(t *testing.T) {
	registry, resolver, _ := newRegistryFixture(t)
	s := entities.NewSession("uid-1", "rep@x.com")
	require.NoError(t, resolver.Establish(context.Background(), s))

	rec := registry.Get(s.ID, "conv-1")
	assert.True(t, registry.Remove(s.ID, "conv-1"))
	assert.True(t, rec.Closed())
	assert.False(t, registry.Remove(s.ID, "conv-1"))

	fresh := registry.Get(s.ID, "conv-1")
	assert.NotSame(t, rec, fresh)
	assert.False(t, fresh.Closed())
}

func TestRegistry_Shutdown(t *testing.T) {
	registry, resolver, _ := newRegistryFixture(t)
	s := entities.NewSession("uid-1", "rep@x.com")
	require.NoError(t, resolver.Establish(context.Background(), s))

	rec := registry.Get(s.ID, "conv-1")
	registry.Shutdown()
	assert.True(t, rec.Closed())
}

func TestRegistry_ExpiredSessionIsReleasedBySweep(t *testing.T) {
	kv := cache.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	resolver := session.NewResolver(repository.NewSessionRepository(kv), 50*time.Millisecond, zap.NewNop())
	store := newFakeStore()
	registry := NewRegistry(resolver, func(uuid.UUID) repositories.CRMStore { return store }, newMemIdentity(), zap.NewNop())

	ctx := context.Background()
	s := entities.NewSession("uid-1", "rep@x.com")
	require.NoError(t, resolver.Establish(ctx, s))

	rec := registry.Get(s.ID, "conv-1")
	require.False(t, rec.Closed())
	require.Equal(t, 1, resolver.ObserverCount(s.ID))

	assert.Zero(t, resolver.SweepExpired(ctx), "live sessions are kept")
	assert.False(t, rec.Closed())

	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, 1, resolver.SweepExpired(ctx))
	assert.True(t, rec.Closed())
	_, ok := registry.Lookup(s.ID, "conv-1")
	assert.False(t, ok)
	assert.Equal(t, 0, resolver.ObserverCount(s.ID))

	assert.Zero(t, resolver.SweepExpired(ctx), "released sessions are not swept twice")
}
