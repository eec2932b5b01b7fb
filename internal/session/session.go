package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"smartclaim/internal/advice"
	"smartclaim/internal/blob"
	"smartclaim/internal/docset"
	"smartclaim/internal/ingest"
	"smartclaim/internal/models"
	"smartclaim/internal/pdftext"
	"smartclaim/internal/policy"
	"smartclaim/internal/storage"
	"smartclaim/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are shared by every session of a process.
type Deps struct {
	Store        storage.DocumentStore
	Advisor      *advice.Advisor
	Classifier   *policy.Classifier
	PersistDelay time.Duration
	Log          *zap.Logger
}

// Session is one capability holder's working state: the document set, the
// general chat history and pending persistence warnings. All core
// operations are reached through it.
type Session struct {
	cap       Capability
	store     storage.DocumentStore
	blobs     *blob.Store
	set       *docset.Set
	persister *docset.Persister
	pipeline  *ingest.Pipeline
	advisor   *advice.Advisor
	log       *zap.Logger
	now       func() time.Time

	uploadMu sync.Mutex

	mu          sync.Mutex
	general     []models.Message
	warnings    []string
	removed     map[string]struct{}
	unsubscribe func()
	closed      bool
}

// Open builds a session for cap and loads the owner's stored documents.
// Store failures become warnings; Open only fails on a nil store.
func Open(ctx context.Context, cap Capability, deps Deps) (*Session, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("open session: %w: no document store", util.ErrStore)
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("owner", cap.Owner))

	s := &Session{
		cap:     cap,
		store:   deps.Store,
		blobs:   blob.NewStore(),
		advisor: deps.Advisor,
		log:     log,
		now:     time.Now,
		removed: map[string]struct{}{},
	}
	if s.advisor == nil {
		s.advisor = advice.NewAdvisor(nil, advice.NewPromptBuilder(0, 0), 0, log)
	}
	s.general = []models.Message{advice.GeneralWelcome(s.now())}
	s.persister = docset.NewPersister(deps.Store, cap.Owner, deps.PersistDelay, log, s.addWarning)
	s.set = docset.New(s.blobs, s.persister)
	s.pipeline = ingest.NewPipeline(
		pdftext.NewExtractor(s.blobs, log),
		deps.Classifier,
		s.blobs,
		log,
		ingest.WithAfterStore(s.summarize),
	)

	if hs, ok := deps.Store.(storage.HistoryStore); ok {
		history, err := hs.LoadHistory(ctx, cap.Owner)
		if err != nil {
			s.addWarning(fmt.Errorf("%w: load history: %v", util.ErrStore, err))
		} else if len(history) > 0 {
			s.general = history
		}
	}

	docs, err := deps.Store.ListDocuments(ctx, cap.Owner)
	if err != nil {
		s.addWarning(fmt.Errorf("%w: load documents: %v", util.ErrStore, err))
	} else if s.set.Merge(docs, s.rename) > 0 {
		_ = s.set.SetActive(s.set.Snapshot().Documents[0].ID)
	}

	unsubscribe, err := deps.Store.Subscribe(context.Background(), cap.Owner, s.onStoreChange)
	if err != nil {
		s.addWarning(fmt.Errorf("%w: subscribe: %v", util.ErrStore, err))
	} else {
		s.unsubscribe = unsubscribe
	}
	return s, nil
}

func (s *Session) Capability() Capability { return s.cap }

func (s *Session) Snapshot() docset.Snapshot { return s.set.Snapshot() }

func (s *Session) Document(id string) (models.Document, bool) { return s.set.Get(id) }

// Upload runs one batch through the ingest pipeline. Batches of the same
// session never interleave. The last stored document becomes active.
func (s *Session) Upload(ctx context.Context, files []ingest.File, d ingest.Decider) ingest.Report {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	r := s.pipeline.Run(ctx, s.set, files, d)
	if stored := r.Stored(); len(stored) > 0 {
		if err := s.set.SetActive(stored[len(stored)-1].DocumentID); err != nil {
			s.log.Debug("uploaded document vanished before activation", zap.Error(err))
		}
	}
	for _, o := range r.Files {
		if o.ReplacedID != "" {
			s.tombstone(o.ReplacedID)
		}
	}
	return r
}

func (s *Session) summarize(ctx context.Context, doc models.Document) {
	sum := s.advisor.Summarize(ctx, doc.FullText)
	welcome := advice.WelcomeMessage(doc.ID, sum, s.now())
	err := s.set.Update(doc.ID, func(d *models.Document) {
		d.Summary = sum.Summary
		d.SuggestedQuestions = sum.SuggestedQuestions
		d.ChatHistory = []models.Message{welcome}
	})
	if err != nil {
		s.log.Debug("summary target removed", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (s *Session) Remove(id string) error {
	if err := s.set.Remove(id); err != nil {
		return err
	}
	s.tombstone(id)
	return nil
}

// SetActive selects a document; "" selects the aggregate view.
func (s *Session) SetActive(id string) error {
	return s.set.SetActive(id)
}

// Ask answers query against the current selection. The user's message and
// the answer are appended to the active document, or to the general history
// when none is active. Only an empty query is an error.
func (s *Session) Ask(ctx context.Context, query string) (models.Message, error) {
	if strings.TrimSpace(query) == "" {
		return models.Message{}, util.ErrEmptyQuery
	}
	snap := s.set.Snapshot()
	mode, contextText := advice.Assemble(snap.Documents, snap.ActiveID)

	userMsg := models.Message{ID: uuid.NewString(), Role: models.RoleUser, Text: query, CreatedAt: s.now()}
	s.appendTo(snap.ActiveID, userMsg)

	answer, err := s.advisor.Ask(ctx, mode, contextText, query)
	if err != nil {
		return models.Message{}, err
	}
	s.appendTo(snap.ActiveID, answer)
	return answer, nil
}

func (s *Session) appendTo(docID string, msg models.Message) {
	if docID != "" {
		// the document may have been removed while the answer was pending
		if err := s.set.AppendMessages(docID, msg); err != nil {
			s.log.Debug("dropping message for removed document", zap.String("document_id", docID))
		}
		return
	}
	s.mu.Lock()
	s.general = append(s.general, msg)
	history := append([]models.Message(nil), s.general...)
	s.mu.Unlock()
	s.persister.HistoryChanged(history)
}

// Messages is the history shown for the current selection.
func (s *Session) Messages() []models.Message {
	if doc, ok := s.set.Snapshot().Active(); ok {
		return doc.ChatHistory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.general...)
}

func (s *Session) Suggestions() []string {
	var docSuggestions []string
	if doc, ok := s.set.Snapshot().Active(); ok {
		docSuggestions = doc.SuggestedQuestions
	}
	return advice.Suggestions(s.Messages(), docSuggestions)
}

// File returns the original bytes of a document that still holds a handle.
func (s *Session) File(id string) ([]byte, string, error) {
	doc, ok := s.set.Get(id)
	if !ok {
		return nil, "", fmt.Errorf("document %s: %w", id, util.ErrNotFound)
	}
	data, _, ok := s.blobs.Get(doc.FileHandle)
	if !ok {
		return nil, "", fmt.Errorf("file for %s: %w", id, util.ErrNotFound)
	}
	return data, doc.Name, nil
}

// LoadCustomer shows an assisted customer's policy records. They are not
// written back to the store.
func (s *Session) LoadCustomer(c models.Customer) int {
	docs := ingest.PolicyRecordDocuments(c, s.now())
	added := s.set.Merge(docs, s.rename)
	if len(docs) > 0 {
		_ = s.set.SetActive(docs[0].ID)
	}
	s.mu.Lock()
	s.general = []models.Message{advice.GeneralWelcome(s.now()), ingest.CustomerWelcome(c, docs, s.now())}
	s.mu.Unlock()
	return added
}

// Warnings drains the non-fatal notices collected since the last call.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.warnings
	s.warnings = nil
	if out == nil {
		out = []string{}
	}
	return out
}

func (s *Session) addWarning(err error) {
	s.log.Warn("session warning", zap.Error(err))
	s.mu.Lock()
	s.warnings = append(s.warnings, err.Error())
	s.mu.Unlock()
}

func (s *Session) Flush(ctx context.Context) error {
	return s.persister.Flush(ctx)
}

// Close stops the store subscription, writes pending changes and releases
// every file handle. Calling it twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	err := s.persister.Close(ctx)
	s.set.Close()
	s.blobs.ReleaseAll()
	return err
}

func (s *Session) onStoreChange(c storage.Change) {
	if c.Op != storage.ChangeSaved || c.Document == nil {
		return
	}
	s.mu.Lock()
	_, gone := s.removed[c.ID]
	s.mu.Unlock()
	if gone {
		return
	}
	if n := s.set.Merge([]models.Document{*c.Document}, s.rename); n > 0 {
		s.log.Info("document arrived from store", zap.String("document_id", c.ID))
	}
}

func (s *Session) tombstone(id string) {
	s.mu.Lock()
	s.removed[id] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) rename(name string, exists func(string) bool) string {
	return docset.UniqueName(name, exists, s.now())
}
