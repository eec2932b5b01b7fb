package storage

import "sync"

// fanout routes store changes to per-owner subscribers so one upstream
// listener can serve every session of a process.
type fanout struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(Change)
}

func newFanout() *fanout {
	return &fanout{subs: map[string]map[int]func(Change){}}
}

// add registers fn for owner and returns its removal func.
func (f *fanout) add(owner string, fn func(Change)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.subs[owner] == nil {
		f.subs[owner] = map[int]func(Change){}
	}
	f.subs[owner][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[owner], id)
			if len(f.subs[owner]) == 0 {
				delete(f.subs, owner)
			}
		})
	}
}

func (f *fanout) wants(owner string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[owner]) > 0
}

func (f *fanout) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.subs {
		n += len(m)
	}
	return n
}

// publish calls every subscriber of c.Owner outside the lock, each with
// its own copy of the document.
func (f *fanout) publish(c Change) {
	f.mu.Lock()
	fns := make([]func(Change), 0, len(f.subs[c.Owner]))
	for _, fn := range f.subs[c.Owner] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		cc := c
		if c.Document != nil {
			d := c.Document.Clone()
			cc.Document = &d
		}
		fn(cc)
	}
}
