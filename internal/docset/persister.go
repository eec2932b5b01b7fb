package docset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartclaim/internal/metrics"
	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"go.uber.org/zap"
)

const storeCallTimeout = 10 * time.Second

// Store is the write half of the document store.
type Store interface {
	SaveDocument(ctx context.Context, owner string, doc models.Document) error
	DeleteDocument(ctx context.Context, owner, id string) error
}

// HistoryWriter is implemented by stores that also keep the general chat
// history.
type HistoryWriter interface {
	SaveHistory(ctx context.Context, owner string, msgs []models.Message) error
}

// Persister batches set mutations and writes them to the store after the
// set has been quiet for the debounce delay. Failures are logged and handed
// to the warning callback; the in-memory set is never rolled back.
type Persister struct {
	store     Store
	owner     string
	delay     time.Duration
	log       *zap.Logger
	onWarning func(error)

	mu      sync.Mutex
	saves   map[string]models.Document
	deletes map[string]struct{}
	history []models.Message
	dirty   bool
	timer   *time.Timer
	closed  bool

	flushMu sync.Mutex
}

func NewPersister(store Store, owner string, delay time.Duration, log *zap.Logger, onWarning func(error)) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &Persister{
		store:     store,
		owner:     owner,
		delay:     delay,
		log:       log.With(zap.String("owner", owner)),
		onWarning: onWarning,
		saves:     map[string]models.Document{},
		deletes:   map[string]struct{}{},
	}
}

// DocumentChanged queues a save. File handles are session-local and are
// not persisted.
func (p *Persister) DocumentChanged(doc models.Document) {
	doc = doc.Clone()
	doc.FileHandle = ""
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	delete(p.deletes, doc.ID)
	p.saves[doc.ID] = doc
	p.scheduleLocked()
}

func (p *Persister) DocumentRemoved(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	delete(p.saves, id)
	p.deletes[id] = struct{}{}
	p.scheduleLocked()
}

// HistoryChanged queues the general chat history. Only the latest queued
// history is written. Stores without a HistoryWriter ignore it.
func (p *Persister) HistoryChanged(msgs []models.Message) {
	if _, ok := p.store.(HistoryWriter); !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.history = append([]models.Message(nil), msgs...)
	p.dirty = true
	p.scheduleLocked()
}

func (p *Persister) scheduleLocked() {
	if p.timer == nil {
		p.timer = time.AfterFunc(p.delay, func() {
			_ = p.Flush(context.Background())
		})
		return
	}
	p.timer.Reset(p.delay)
}

func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.saves) + len(p.deletes)
	if p.dirty {
		n++
	}
	return n
}

// Flush writes everything queued so far. It returns the joined store errors
// after reporting each of them.
func (p *Persister) Flush(ctx context.Context) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	saves, deletes := p.saves, p.deletes
	history, dirty := p.history, p.dirty
	p.saves = map[string]models.Document{}
	p.deletes = map[string]struct{}{}
	p.history, p.dirty = nil, false
	p.mu.Unlock()

	var errs []error
	for id := range deletes {
		cctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
		err := p.store.DeleteDocument(cctx, p.owner, id)
		cancel()
		if err != nil {
			errs = append(errs, p.fail("delete", id, err))
		}
	}
	for id, doc := range saves {
		cctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
		err := p.store.SaveDocument(cctx, p.owner, doc)
		cancel()
		if err != nil {
			errs = append(errs, p.fail("save", id, err))
		}
	}
	if hw, ok := p.store.(HistoryWriter); ok && dirty {
		cctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
		err := hw.SaveHistory(cctx, p.owner, history)
		cancel()
		if err != nil {
			errs = append(errs, p.fail("save_history", "general", err))
		}
	}
	if len(saves)+len(deletes) > 0 && len(errs) == 0 {
		p.log.Debug("documents persisted", zap.Int("saved", len(saves)), zap.Int("deleted", len(deletes)))
	}
	return errors.Join(errs...)
}

// Close stops the timer and flushes what is still queued.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()
	return p.Flush(ctx)
}

func (p *Persister) fail(op, id string, err error) error {
	if !errors.Is(err, util.ErrStore) {
		err = fmt.Errorf("%w: %s %s: %v", util.ErrStore, op, id, err)
	}
	metrics.PersistFailuresTotal.WithLabelValues(op).Inc()
	p.log.Warn("document persistence failed", zap.String("op", op), zap.String("document_id", id), zap.Error(err))
	if p.onWarning != nil {
		p.onWarning(err)
	}
	return err
}
