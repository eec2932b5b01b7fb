package activities

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"smartclaim/internal/advice"
	"smartclaim/internal/config"
	"smartclaim/internal/ingest"
	"smartclaim/internal/models"
	"smartclaim/internal/pdftext"
	"smartclaim/internal/policy"
	"smartclaim/internal/storage"
	"smartclaim/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

// ExtractionErrorType marks PDFs that will never parse; retrying them is pointless.
const ExtractionErrorType = "ExtractionError"

type Activities struct {
	cfg      config.Config
	store    storage.DocumentStore
	advisor  *advice.Advisor
	pipeline *ingest.Pipeline
	log      *zap.Logger
	now      func() time.Time
}

// New wires the import activities. advisor may be nil, in which case stored
// documents get no summary.
func New(cfg config.Config, store storage.DocumentStore, advisor *advice.Advisor, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.NewNop()
	}
	extractor := pdftext.NewExtractor(nil, log, pdftext.WithoutRetention())
	return &Activities{
		cfg:      cfg,
		store:    store,
		advisor:  advisor,
		pipeline: ingest.NewPipeline(extractor, policy.NewClassifier(cfg.ClassifierWindow), nil, log),
		log:      log,
		now:      time.Now,
	}
}

func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	_ = ctx
	paths, err := util.ListPDFs(in.InputDir)
	if err != nil {
		return ListPDFsOutput{}, fmt.Errorf("read input dir: %w", err)
	}
	return ListPDFsOutput{Paths: paths}, nil
}

func (a *Activities) PrepareFileActivity(ctx context.Context, in PrepareFileInput) (PrepareFileOutput, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return PrepareFileOutput{}, fmt.Errorf("read %s: %w", in.Path, err)
	}
	doc, c, err := a.pipeline.Prepare(ctx, ingest.File{Name: filepath.Base(in.Path), Data: data})
	if errors.Is(err, util.ErrExtraction) {
		return PrepareFileOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), ExtractionErrorType, err)
	}
	if err != nil {
		return PrepareFileOutput{}, err
	}
	return PrepareFileOutput{Document: doc, Classification: c}, nil
}

// StoreDocumentActivity places an accepted document in the owner's store.
// Retrying it after a successful save is a no-op.
func (a *Activities) StoreDocumentActivity(ctx context.Context, in StoreDocumentInput) (StoreDocumentOutput, error) {
	existing, err := a.store.ListDocuments(ctx, in.Owner)
	if err != nil {
		return StoreDocumentOutput{}, fmt.Errorf("%w: %w", util.ErrStore, err)
	}
	for _, d := range existing {
		if d.ID == in.Document.ID {
			return StoreDocumentOutput{Outcome: ingest.Outcome{
				Name:       in.Document.Name,
				State:      ingest.StateStored,
				DocumentID: d.ID,
				StoredAs:   d.Name,
			}}, nil
		}
	}

	doc := in.Document
	if in.Summarize && a.advisor != nil {
		sum := a.advisor.Summarize(ctx, doc.FullText)
		doc.Summary = sum.Summary
		doc.SuggestedQuestions = sum.SuggestedQuestions
		doc.ChatHistory = []models.Message{advice.WelcomeMessage(doc.ID, sum, a.now())}
	}

	target := &storeTarget{ctx: ctx, store: a.store, owner: in.Owner, docs: existing}
	out := a.pipeline.Place(ctx, target, doc, ingest.StaticDecider{OnDuplicate: in.OnDuplicate})
	out.Name = in.Document.Name
	if out.State == ingest.StateFailed && errors.Is(target.err, util.ErrStore) {
		return StoreDocumentOutput{}, target.err
	}
	a.log.Info("import document placed",
		zap.String("owner", in.Owner),
		zap.String("name", out.Name),
		zap.String("state", string(out.State)),
		zap.String("stored_as", out.StoredAs),
	)
	return StoreDocumentOutput{Outcome: out}, nil
}

func (a *Activities) WriteImportSummaryActivity(ctx context.Context, in WriteImportSummaryInput) (WriteImportSummaryOutput, error) {
	_ = ctx
	path := filepath.Join(a.cfg.DataOutRoot, "imports", util.SafeJoin("", in.Owner), in.RunID+".json")
	if err := util.WriteJSONAtomic(path, in.Summary); err != nil {
		return WriteImportSummaryOutput{}, err
	}
	return WriteImportSummaryOutput{Path: path}, nil
}

// storeTarget lets the ingest pipeline place documents straight into a
// DocumentStore, using a listing taken at the start of the activity.
type storeTarget struct {
	ctx   context.Context
	store storage.DocumentStore
	owner string
	docs  []models.Document
	err   error
}

func (t *storeTarget) FindByName(name string) (models.Document, bool) {
	for _, d := range t.docs {
		if d.Name == name {
			return d, true
		}
	}
	return models.Document{}, false
}

func (t *storeTarget) HasName(name string) bool {
	_, ok := t.FindByName(name)
	return ok
}

func (t *storeTarget) Add(doc models.Document) error {
	if err := t.store.SaveDocument(t.ctx, t.owner, doc); err != nil {
		t.err = fmt.Errorf("%w: %w", util.ErrStore, err)
		return t.err
	}
	t.docs = append(t.docs, doc)
	return nil
}

func (t *storeTarget) Remove(id string) error {
	if err := t.store.DeleteDocument(t.ctx, t.owner, id); err != nil {
		t.err = fmt.Errorf("%w: %w", util.ErrStore, err)
		return t.err
	}
	for i, d := range t.docs {
		if d.ID == id {
			t.docs = append(t.docs[:i], t.docs[i+1:]...)
			break
		}
	}
	return nil
}
