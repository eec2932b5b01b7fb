package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartclaim/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	_ DocumentStore = (*PostgresStore)(nil)
	_ HistoryStore  = (*PostgresStore)(nil)
)

const (
	notifyChannel      = "policy_documents"
	listenSetupTimeout = 5 * time.Second
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS policy_documents (
  owner_key   TEXT NOT NULL,
  doc_id      TEXT NOT NULL,
  name        TEXT NOT NULL,
  uploaded_at TIMESTAMPTZ NOT NULL,
  body        JSONB NOT NULL,
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (owner_key, doc_id)
);
CREATE INDEX IF NOT EXISTS policy_documents_owner_uploaded ON policy_documents (owner_key, uploaded_at);
CREATE TABLE IF NOT EXISTS general_histories (
  owner_key  TEXT PRIMARY KEY,
  messages   JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

type PostgresStore struct {
	db  *DB
	log *zap.Logger
	fan *fanout

	lmu        sync.Mutex
	closed     bool
	stopListen context.CancelFunc
	listenDone chan struct{}
}

func NewPostgresStore(db *DB, log *zap.Logger) *PostgresStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresStore{db: db, log: log, fan: newFanout()}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, owner string) ([]models.Document, error) {
	rows, err := s.db.Pool.Query(ctx, `
SELECT body
FROM policy_documents
WHERE owner_key=$1
ORDER BY uploaded_at ASC, doc_id ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var d models.Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, d.Clone())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveDocument(ctx context.Context, owner string, doc models.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	payload, err := notifyPayload(ChangeSaved, owner, doc.ID)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO policy_documents (owner_key, doc_id, name, uploaded_at, body)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (owner_key, doc_id)
DO UPDATE SET
  name = EXCLUDED.name,
  body = EXCLUDED.body,
  updated_at = NOW()`,
			owner, doc.ID, doc.Name, doc.UploadedAt, body,
		)
		if err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, payload); err != nil {
			return fmt.Errorf("notify document: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, owner, id string) error {
	payload, err := notifyPayload(ChangeDeleted, owner, id)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM policy_documents WHERE owner_key=$1 AND doc_id=$2`, owner, id)
		if err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, payload); err != nil {
			return fmt.Errorf("notify document: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) LoadHistory(ctx context.Context, owner string) ([]models.Message, error) {
	var raw []byte
	err := s.db.Pool.QueryRow(ctx, `SELECT messages FROM general_histories WHERE owner_key=$1`, owner).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var msgs []models.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return msgs, nil
}

func (s *PostgresStore) SaveHistory(ctx context.Context, owner string, msgs []models.Message) error {
	body, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
INSERT INTO general_histories (owner_key, messages)
VALUES ($1, $2)
ON CONFLICT (owner_key)
DO UPDATE SET messages = EXCLUDED.messages, updated_at = NOW()`, owner, body)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Subscribe registers fn with the store's shared listener, starting it on
// first use. Every subscription of the store shares one LISTEN connection.
func (s *PostgresStore) Subscribe(ctx context.Context, owner string, fn func(Change)) (func(), error) {
	if err := s.ensureListener(ctx); err != nil {
		return nil, err
	}
	remove := s.fan.add(owner, fn)
	stop := context.AfterFunc(ctx, remove)
	return func() {
		stop()
		remove()
	}, nil
}

// Close stops the shared listener. The pool itself belongs to the DB.
func (s *PostgresStore) Close() {
	s.lmu.Lock()
	s.closed = true
	stop, done := s.stopListen, s.listenDone
	s.lmu.Unlock()
	if stop != nil {
		stop()
		<-done
	}
}

func (s *PostgresStore) ensureListener(ctx context.Context) error {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	if s.closed {
		return fmt.Errorf("listen documents: store closed")
	}
	if s.listenDone != nil {
		select {
		case <-s.listenDone:
			// the previous listener died; start a new one
		default:
			return nil
		}
	}

	setupCtx, cancel := context.WithTimeout(ctx, listenSetupTimeout)
	defer cancel()
	conn, err := s.db.Pool.Acquire(setupCtx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(setupCtx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return fmt.Errorf("listen documents: %w", err)
	}

	listenCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopListen, s.listenDone = stop, done
	go s.listen(listenCtx, conn, done)
	s.log.Info("document listener started")
	return nil
}

func (s *PostgresStore) listen(ctx context.Context, conn *pgxpool.Conn, done chan struct{}) {
	defer close(done)
	defer func() {
		// the session is left in LISTEN state; drop it rather than reuse it
		_ = conn.Conn().Close(context.Background())
		conn.Release()
	}()
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("document listener stopped", zap.Error(err))
			}
			return
		}
		c, err := parseNotifyPayload(n.Payload)
		if err != nil {
			s.log.Warn("ignoring malformed document event", zap.Error(err))
			continue
		}
		if !s.fan.wants(c.Owner) {
			continue
		}
		if c.Op == ChangeSaved {
			getCtx, cancel := context.WithTimeout(ctx, listenSetupTimeout)
			d, err := s.getDocument(getCtx, c.Owner, c.ID)
			cancel()
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				s.log.Warn("load announced document", zap.String("owner", c.Owner), zap.String("id", c.ID), zap.Error(err))
				continue
			}
			c.Document = &d
		}
		s.fan.publish(c)
	}
}

func (s *PostgresStore) getDocument(ctx context.Context, owner, id string) (models.Document, error) {
	var raw []byte
	err := s.db.Pool.QueryRow(ctx, `SELECT body FROM policy_documents WHERE owner_key=$1 AND doc_id=$2`, owner, id).Scan(&raw)
	if err != nil {
		return models.Document{}, err
	}
	var d models.Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return models.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}

// Notification payloads are capped at 8000 bytes, so only ids travel.
func notifyPayload(op ChangeOp, owner, id string) (string, error) {
	b, err := json.Marshal(Change{Op: op, Owner: owner, ID: id})
	if err != nil {
		return "", fmt.Errorf("marshal change: %w", err)
	}
	return string(b), nil
}

func parseNotifyPayload(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	if c.Owner == "" || c.ID == "" {
		return Change{}, fmt.Errorf("change missing owner or id")
	}
	return c, nil
}
