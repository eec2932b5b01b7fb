package storage

import (
	"context"
	"sort"
	"sync"

	"smartclaim/internal/models"
)

var (
	_ DocumentStore = (*MemoryStore)(nil)
	_ HistoryStore  = (*MemoryStore)(nil)
)

type MemoryStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]models.Document
	history map[string][]models.Message
	subs    map[string]map[int]func(Change)
	nextID  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    make(map[string]map[string]models.Document),
		history: make(map[string][]models.Message),
		subs:    make(map[string]map[int]func(Change)),
	}
}

func (m *MemoryStore) ListDocuments(ctx context.Context, owner string) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Document, 0, len(m.docs[owner]))
	for _, d := range m.docs[owner] {
		out = append(out, d.Clone())
	}
	sortByUpload(out)
	return out, nil
}

func (m *MemoryStore) SaveDocument(ctx context.Context, owner string, doc models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.docs[owner] == nil {
		m.docs[owner] = make(map[string]models.Document)
	}
	stored := doc.Clone()
	m.docs[owner][doc.ID] = stored
	subs := m.subscribersLocked(owner)
	m.mu.Unlock()

	for _, fn := range subs {
		d := stored.Clone()
		fn(Change{Op: ChangeSaved, Owner: owner, ID: doc.ID, Document: &d})
	}
	return nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	_, ok := m.docs[owner][id]
	delete(m.docs[owner], id)
	subs := m.subscribersLocked(owner)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	for _, fn := range subs {
		fn(Change{Op: ChangeDeleted, Owner: owner, ID: id})
	}
	return nil
}

func (m *MemoryStore) LoadHistory(ctx context.Context, owner string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Message{}, m.history[owner]...), nil
}

func (m *MemoryStore) SaveHistory(ctx context.Context, owner string, msgs []models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.history[owner] = append([]models.Message(nil), msgs...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, owner string, fn func(Change)) (func(), error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.subs[owner] == nil {
		m.subs[owner] = make(map[int]func(Change))
	}
	m.subs[owner][id] = fn
	m.mu.Unlock()

	remove := func() {
		m.mu.Lock()
		delete(m.subs[owner], id)
		m.mu.Unlock()
	}
	stop := context.AfterFunc(ctx, remove)
	return func() {
		stop()
		remove()
	}, nil
}

func (m *MemoryStore) subscribersLocked(owner string) []func(Change) {
	out := make([]func(Change), 0, len(m.subs[owner]))
	for _, fn := range m.subs[owner] {
		out = append(out, fn)
	}
	return out
}

func sortByUpload(docs []models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].UploadedAt.Before(docs[j].UploadedAt)
	})
}
