package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartclaim/internal/docset"
	"smartclaim/internal/metrics"
	"smartclaim/internal/models"
	"smartclaim/internal/policy"
	"smartclaim/internal/util"

	"go.uber.org/zap"
)

type Extractor interface {
	ExtractBytes(ctx context.Context, name string, data []byte) (models.Document, error)
}

type Releaser interface {
	Release(handle string) bool
}

// Target receives accepted documents. *docset.Set satisfies it.
type Target interface {
	FindByName(name string) (models.Document, bool)
	HasName(name string) bool
	Add(doc models.Document) error
	Remove(id string) error
}

type File struct {
	Name string
	Data []byte
}

type Pipeline struct {
	extractor  Extractor
	classifier *policy.Classifier
	blobs      Releaser
	log        *zap.Logger
	now        func() time.Time
	afterStore func(ctx context.Context, doc models.Document)
}

type Option func(*Pipeline)

// WithAfterStore runs fn for every stored document, in file order, before
// the next file is processed.
func WithAfterStore(fn func(ctx context.Context, doc models.Document)) Option {
	return func(p *Pipeline) { p.afterStore = fn }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(extractor Extractor, classifier *policy.Classifier, blobs Releaser, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if classifier == nil {
		classifier = policy.NewClassifier(0)
	}
	p := &Pipeline{
		extractor:  extractor,
		classifier: classifier,
		blobs:      blobs,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run handles files strictly one after another so that override and
// duplicate questions come up in submission order. A failing file never
// stops the batch.
func (p *Pipeline) Run(ctx context.Context, target Target, files []File, d Decider) Report {
	var r Report
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			r.Add(Outcome{Name: f.Name, State: StateFailed, Reason: err.Error()})
			continue
		}
		r.Add(p.Process(ctx, target, f, d))
	}
	p.log.Info("ingest batch finished",
		zap.Int("files", len(files)),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Int("skipped", r.Skipped),
	)
	return r
}

// Process takes one file through extract, classify, override and place.
func (p *Pipeline) Process(ctx context.Context, target Target, f File, d Decider) Outcome {
	doc, c, err := p.Prepare(ctx, f)
	if err != nil {
		p.log.Warn("file failed extraction", zap.String("name", f.Name), zap.Error(err))
		return Outcome{Name: f.Name, State: StateFailed, Reason: err.Error()}
	}

	overridden := false
	if !c.Likely {
		ok, err := d.Override(ctx, f.Name, c)
		if err != nil || !ok {
			p.release(doc)
			reason := util.ErrNotPolicy.Error()
			if err != nil {
				reason = err.Error()
			}
			p.log.Info("file skipped by classifier", zap.String("name", f.Name),
				zap.Strings("general", c.General), zap.Strings("specific", c.Specific))
			return Outcome{Name: f.Name, State: StateSkipped, Reason: reason, Classification: &c}
		}
		overridden = true
	}

	out := p.Place(ctx, target, doc, d)
	out.Name = f.Name
	out.Overridden = overridden
	out.Classification = &c
	return out
}

// Prepare extracts and classifies without touching any target.
func (p *Pipeline) Prepare(ctx context.Context, f File) (models.Document, policy.Classification, error) {
	doc, err := p.extractor.ExtractBytes(ctx, f.Name, f.Data)
	if err != nil {
		if !errors.Is(err, util.ErrExtraction) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", util.ErrExtraction, err)
		}
		return models.Document{}, policy.Classification{}, err
	}
	c := p.classifier.Classify(doc.FullText)
	if !c.Likely {
		metrics.ClassifierRejectionsTotal.Inc()
	}
	return doc, c, nil
}

// Place resolves a name conflict with the decider and adds doc to target.
func (p *Pipeline) Place(ctx context.Context, target Target, doc models.Document, d Decider) Outcome {
	out := Outcome{Name: doc.Name}
	if existing, taken := target.FindByName(doc.Name); taken {
		action, err := d.Duplicate(ctx, doc.Name)
		if err != nil {
			p.release(doc)
			out.State, out.Reason = StateSkipped, err.Error()
			return out
		}
		switch action {
		case DuplicateReplace:
			if err := target.Remove(existing.ID); err != nil && !errors.Is(err, util.ErrNotFound) {
				p.release(doc)
				out.State, out.Reason = StateFailed, err.Error()
				return out
			}
			out.ReplacedID = existing.ID
		case DuplicateKeepBoth:
			doc.Name = docset.UniqueName(doc.Name, target.HasName, p.now())
		default:
			p.release(doc)
			out.State, out.Reason = StateSkipped, util.ErrDuplicateName.Error()
			return out
		}
	}

	if err := target.Add(doc); err != nil {
		p.release(doc)
		out.State, out.Reason = StateFailed, err.Error()
		return out
	}
	out.State = StateStored
	out.DocumentID = doc.ID
	out.StoredAs = doc.Name
	if p.afterStore != nil {
		p.afterStore(ctx, doc)
	}
	return out
}

func (p *Pipeline) release(doc models.Document) {
	if p.blobs != nil && doc.FileHandle != "" {
		p.blobs.Release(doc.FileHandle)
	}
}
