package blob

import (
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	name string
	data []byte
}

// Store keeps uploaded PDF bytes addressable by an opaque handle until the
// owning document is removed or the session is torn down.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewStore() *Store {
	return &Store{entries: map[string]entry{}}
}

func (s *Store) Put(name string, data []byte) string {
	h := "blob:" + uuid.NewString()
	s.mu.Lock()
	s.entries[h] = entry{name: name, data: data}
	s.mu.Unlock()
	return h
}

func (s *Store) Get(handle string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[handle]
	if !ok {
		return nil, "", false
	}
	return e.data, e.name, true
}

// Release frees a handle. Unknown or already released handles are a no-op;
// the bool reports whether anything was freed.
func (s *Store) Release(handle string) bool {
	if handle == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[handle]; !ok {
		return false
	}
	delete(s.entries, handle)
	return true
}

func (s *Store) ReleaseAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = map[string]entry{}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
