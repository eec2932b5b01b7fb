package pdftext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleAllocator keeps the original bytes viewable after extraction.
type HandleAllocator interface {
	Put(name string, data []byte) string
}

type Extractor struct {
	blobs  HandleAllocator
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
	retain bool
}

type Option func(*Extractor)

// WithoutRetention skips handle allocation; documents come back with an empty FileHandle.
func WithoutRetention() Option {
	return func(e *Extractor) { e.retain = false }
}

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func NewExtractor(blobs HandleAllocator, log *zap.Logger, opts ...Option) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Extractor{
		blobs:  blobs,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
		retain: blobs != nil,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractBytes opens data as a PDF and extracts it. On success the bytes are
// kept behind a fresh handle unless retention is disabled.
func (e *Extractor) ExtractBytes(ctx context.Context, name string, data []byte) (models.Document, error) {
	src, err := OpenBytes(data)
	if err != nil {
		return models.Document{}, err
	}
	doc, err := e.Extract(ctx, name, src)
	if err != nil {
		return models.Document{}, err
	}
	if e.retain && e.blobs != nil {
		doc.FileHandle = e.blobs.Put(name, data)
	}
	return doc, nil
}

// Extract walks every page of src. Blank pages are dropped from Pages and
// the full text. A source without a readable page tree is an extraction
// error. It never classifies or summarizes.
func (e *Extractor) Extract(ctx context.Context, name string, src PageSource) (models.Document, error) {
	n := src.NumPage()
	if n <= 0 {
		return models.Document{}, fmt.Errorf("extract %s: %w: no readable pages", name, util.ErrExtraction)
	}
	pages := make([]models.Page, 0, n)
	var full strings.Builder
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return models.Document{}, err
		}
		frags, err := src.Fragments(i)
		if err != nil {
			return models.Document{}, fmt.Errorf("extract %s: %w", name, err)
		}
		text := util.SanitizeText(Reconstruct(frags))
		if text == "" {
			continue
		}
		pages = append(pages, models.Page{PageNumber: i, Content: text})
		fmt.Fprintf(&full, "--- Page %d ---\n%s\n\n", i, text)
	}
	if len(pages) == 0 {
		e.log.Warn("pdf has no extractable text", zap.String("name", name), zap.Int("pages", n))
	} else {
		e.log.Debug("pdf extracted",
			zap.String("name", name),
			zap.Int("pages", n),
			zap.Int("text_pages", len(pages)),
			zap.String("preview", util.Preview(pages[0].Content, 80)),
		)
	}
	return models.Document{
		ID:          e.newID(),
		Name:        name,
		Pages:       pages,
		FullText:    full.String(),
		ChatHistory: []models.Message{},
		UploadedAt:  e.now().UTC(),
	}, nil
}
