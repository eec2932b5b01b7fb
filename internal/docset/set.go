// Package docset owns the ordered collection of ingested documents for one
// owner, plus the active selection that determines the advice mode.
package docset

import (
	"fmt"
	"sync"

	"smartclaim/internal/models"
	"smartclaim/internal/util"
)

// Releaser frees binary handles. Releasing an unknown handle must be a no-op.
type Releaser interface {
	Release(handle string) bool
}

// Observer is told about every mutation after it has been applied.
// Implementations must not block.
type Observer interface {
	DocumentChanged(doc models.Document)
	DocumentRemoved(id string)
}

type Snapshot struct {
	Documents []models.Document `json:"documents"`
	ActiveID  string            `json:"active_id"`
}

func (s Snapshot) Mode() models.Mode {
	return models.DeriveMode(s.ActiveID, len(s.Documents))
}

func (s Snapshot) Active() (models.Document, bool) {
	if s.ActiveID == "" {
		return models.Document{}, false
	}
	for _, d := range s.Documents {
		if d.ID == s.ActiveID {
			return d, true
		}
	}
	return models.Document{}, false
}

type Set struct {
	mu       sync.RWMutex
	docs     []models.Document
	activeID string
	blobs    Releaser
	observer Observer
}

func New(blobs Releaser, observer Observer) *Set {
	return &Set{blobs: blobs, observer: observer}
}

// Add appends doc. Name conflicts must be resolved by the caller first.
func (s *Set) Add(doc models.Document) error {
	s.mu.Lock()
	if s.indexOf(doc.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add %s: id %s already present: %w", doc.Name, doc.ID, util.ErrDuplicateName)
	}
	if s.indexOfName(doc.Name) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add %s: %w", doc.Name, util.ErrDuplicateName)
	}
	doc = doc.Clone()
	s.docs = append(s.docs, doc)
	s.mu.Unlock()

	s.notifyChanged(doc)
	return nil
}

// Remove drops the document and releases its handle. If it was active, the
// new last document becomes active, or none when the set is empty.
func (s *Set) Remove(id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, util.ErrNotFound)
	}
	removed := s.docs[i]
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	if s.activeID == id {
		s.activeID = ""
		if n := len(s.docs); n > 0 {
			s.activeID = s.docs[n-1].ID
		}
	}
	s.mu.Unlock()

	s.release(removed.FileHandle)
	if s.observer != nil {
		s.observer.DocumentRemoved(id)
	}
	return nil
}

// SetActive selects a document; the empty id selects none.
func (s *Set) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.indexOf(id) < 0 {
		return fmt.Errorf("activate %s: %w", id, util.ErrNotFound)
	}
	s.activeID = id
	return nil
}

func (s *Set) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

func (s *Set) Mode() models.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.DeriveMode(s.activeID, len(s.docs))
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Set) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{ActiveID: s.activeID, Documents: make([]models.Document, len(s.docs))}
	for i, d := range s.docs {
		out.Documents[i] = d.Clone()
	}
	return out
}

func (s *Set) Get(id string) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.docs[i].Clone(), true
	}
	return models.Document{}, false
}

func (s *Set) FindByName(name string) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOfName(name); i >= 0 {
		return s.docs[i].Clone(), true
	}
	return models.Document{}, false
}

func (s *Set) HasName(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfName(name) >= 0
}

// Update applies fn to the stored document. The id and name are restored
// afterwards; renames only happen before Add.
func (s *Set) Update(id string, fn func(*models.Document)) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", id, util.ErrNotFound)
	}
	doc := s.docs[i].Clone()
	fn(&doc)
	doc.ID = s.docs[i].ID
	doc.Name = s.docs[i].Name
	s.docs[i] = doc
	out := doc.Clone()
	s.mu.Unlock()

	s.notifyChanged(out)
	return nil
}

func (s *Set) AppendMessages(id string, msgs ...models.Message) error {
	return s.Update(id, func(d *models.Document) {
		d.ChatHistory = append(d.ChatHistory, msgs...)
	})
}

// Merge adds documents the set has not seen yet, e.g. ones written to the
// store by a batch import. Colliding names get a disambiguating suffix.
// Merged documents are not reported to the observer.
func (s *Set) Merge(docs []models.Document, rename func(name string, exists func(string) bool) string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, d := range docs {
		if s.indexOf(d.ID) >= 0 {
			continue
		}
		d = d.Clone()
		if s.indexOfName(d.Name) >= 0 && rename != nil {
			d.Name = rename(d.Name, func(n string) bool { return s.indexOfName(n) >= 0 })
		}
		s.docs = append(s.docs, d)
		added++
	}
	return added
}

// Close releases every handle still held. Documents stay in the set.
func (s *Set) Close() {
	s.mu.RLock()
	handles := make([]string, 0, len(s.docs))
	for _, d := range s.docs {
		handles = append(handles, d.FileHandle)
	}
	s.mu.RUnlock()
	for _, h := range handles {
		s.release(h)
	}
}

func (s *Set) release(handle string) {
	if s.blobs != nil && handle != "" {
		s.blobs.Release(handle)
	}
}

func (s *Set) notifyChanged(doc models.Document) {
	if s.observer != nil {
		s.observer.DocumentChanged(doc)
	}
}

func (s *Set) indexOf(id string) int {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Set) indexOfName(name string) int {
	for i := range s.docs {
		if s.docs[i].Name == name {
			return i
		}
	}
	return -1
}
