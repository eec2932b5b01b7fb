package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"smartclaim/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc(id, name string, at time.Time) models.Document {
	return models.Document{
		ID:          id,
		Name:        name,
		Pages:       []models.Page{{PageNumber: 1, Content: "保險 保單"}},
		FullText:    "--- Page 1 ---\n保險 保單\n\n",
		ChatHistory: []models.Message{},
		UploadedAt:  at,
	}
}

type changeLog struct {
	mu      sync.Mutex
	changes []Change
}

func (c *changeLog) add(ch Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func (c *changeLog) snapshot() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Change(nil), c.changes...)
}

func TestMemoryStoreListOrdersByUpload(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveDocument(ctx, "alice", testDoc("b", "second.pdf", base.Add(time.Minute))))
	require.NoError(t, s.SaveDocument(ctx, "alice", testDoc("a", "first.pdf", base)))
	require.NoError(t, s.SaveDocument(ctx, "bob", testDoc("c", "other.pdf", base)))

	docs, err := s.ListDocuments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	require.NoError(t, s.DeleteDocument(ctx, "alice", "a"))
	docs, err = s.ListDocuments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].ID)
}

func TestMemoryStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var log changeLog

	cancel, err := s.Subscribe(ctx, "alice", log.add)
	require.NoError(t, err)

	require.NoError(t, s.SaveDocument(ctx, "alice", testDoc("a", "a.pdf", time.Now())))
	require.NoError(t, s.SaveDocument(ctx, "bob", testDoc("b", "b.pdf", time.Now())))
	require.NoError(t, s.DeleteDocument(ctx, "alice", "a"))
	require.NoError(t, s.DeleteDocument(ctx, "alice", "missing"))

	got := log.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, ChangeSaved, got[0].Op)
	require.NotNil(t, got[0].Document)
	assert.Equal(t, "a.pdf", got[0].Document.Name)
	assert.Equal(t, ChangeDeleted, got[1].Op)
	assert.Equal(t, "a", got[1].ID)

	cancel()
	require.NoError(t, s.SaveDocument(ctx, "alice", testDoc("z", "z.pdf", time.Now())))
	assert.Len(t, log.snapshot(), 2)
}

func TestMemoryStoreSubscribeEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()
	var log changeLog

	_, err := s.Subscribe(ctx, "alice", log.add)
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.subs["alice"]) == 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.SaveDocument(context.Background(), "alice", testDoc("a", "a.pdf", time.Now())))
	assert.Empty(t, log.snapshot())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := testDoc("a", "a.pdf", time.Now())
	require.NoError(t, s.SaveDocument(ctx, "alice", d))

	d.Pages[0].Content = "mutated"
	docs, err := s.ListDocuments(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "保險 保單", docs[0].Pages[0].Content)
}

func TestMemoryStoreHistoryIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	msgs := []models.Message{{ID: "welcome"}}
	require.NoError(t, s.SaveHistory(ctx, "alice", msgs))
	msgs[0].ID = "mutated"

	got, err := s.LoadHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "welcome", got[0].ID)
	got[0].ID = "again"

	got, _ = s.LoadHistory(ctx, "alice")
	assert.Equal(t, "welcome", got[0].ID)
	empty, err := s.LoadHistory(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
