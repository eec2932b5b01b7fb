package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartclaim/internal/config"
	"smartclaim/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ChangeOp string

const (
	ChangeSaved   ChangeOp = "saved"
	ChangeDeleted ChangeOp = "deleted"
)

// Change is delivered to subscribers after a document was written or
// removed for an owner. Document is set for ChangeSaved only.
type Change struct {
	Op       ChangeOp         `json:"op"`
	Owner    string           `json:"owner"`
	ID       string           `json:"id"`
	Document *models.Document `json:"document,omitempty"`
}

// DocumentStore persists each owner's documents. ListDocuments returns them
// in upload order.
type DocumentStore interface {
	ListDocuments(ctx context.Context, owner string) ([]models.Document, error)
	SaveDocument(ctx context.Context, owner string, doc models.Document) error
	DeleteDocument(ctx context.Context, owner, id string) error
	// Subscribe calls fn for every change made to owner's documents until
	// the returned cancel func is called or ctx ends.
	Subscribe(ctx context.Context, owner string, fn func(Change)) (func(), error)
}

// HistoryStore keeps an owner's general chat history, the conversation
// held while no document is active. Every store in this package has one.
type HistoryStore interface {
	LoadHistory(ctx context.Context, owner string) ([]models.Message, error)
	SaveHistory(ctx context.Context, owner string, msgs []models.Message) error
}

// Open builds the store selected by cfg.Store. The returned close func
// releases connections.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (DocumentStore, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "", "memory":
		return NewMemoryStore(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStore(client, log), func() { _ = client.Close() }, nil
	case "postgres":
		db, err := NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		s := NewPostgresStore(db, log)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, func() {
			s.Close()
			db.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store: %s", cfg.Store)
	}
}
