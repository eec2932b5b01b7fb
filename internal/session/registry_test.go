package session

import (
	"context"
	"testing"
	"time"

	"smartclaim/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewIssuer("secret", time.Hour), testDeps(storage.NewMemoryStore()))

	tok, s, err := reg.Start(ctx, "", RoleGuest)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, reg.End(ctx, tok))
	assert.Zero(t, reg.Len())

	_, err = reg.Resolve(ctx, tok)
	assert.True(t, IsUnauthorized(err))
	assert.True(t, IsUnauthorized(reg.End(ctx, tok)))
}

func TestRegistryReopensKnownOwner(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	iss := NewIssuer("secret", time.Hour)
	tok, _, err := iss.Issue("alice", RoleUser)
	require.NoError(t, err)

	reg := NewRegistry(iss, testDeps(store))
	s, err := reg.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", s.Capability().Owner)
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, reg.CloseAll(ctx))
	assert.Zero(t, reg.Len())
}

func TestRegistryRejectsGarbage(t *testing.T) {
	reg := NewRegistry(NewIssuer("secret", time.Hour), testDeps(storage.NewMemoryStore()))
	_, err := reg.Resolve(context.Background(), "garbage")
	assert.True(t, IsUnauthorized(err))
}

func TestRegistryEvictsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	iss := NewIssuer("secret", time.Hour)
	iss.now = func() time.Time { return clock }
	reg := NewRegistry(iss, testDeps(storage.NewMemoryStore()))

	var first *Session
	for i := 0; i < 50; i++ {
		_, s, err := reg.Start(ctx, "", RoleGuest)
		require.NoError(t, err)
		if first == nil {
			first = s
		}
	}
	assert.Equal(t, 50, reg.Len())
	assert.Zero(t, reg.Sweep(ctx))

	clock = clock.Add(2 * time.Hour)
	tok, _, err := reg.Start(ctx, "", RoleGuest)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	first.mu.Lock()
	assert.True(t, first.closed)
	first.mu.Unlock()

	_, err = reg.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistrySweepEveryStopsWithContext(t *testing.T) {
	reg := NewRegistry(NewIssuer("secret", time.Hour), testDeps(storage.NewMemoryStore()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.SweepEvery(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
