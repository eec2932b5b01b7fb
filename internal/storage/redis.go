package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"smartclaim/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	_ DocumentStore = (*RedisStore)(nil)
	_ HistoryStore  = (*RedisStore)(nil)
)

const (
	redisPrefix        = "smartclaim:docs:"
	redisHistoryPrefix = "smartclaim:history:"
)

// RedisStore keeps one hash of document JSON per owner, a sorted set of ids
// scored by upload time, and announces changes on a per-owner channel.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisStore(client *redis.Client, log *zap.Logger) *RedisStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{client: client, log: log}
}

func docsKey(owner string) string    { return redisPrefix + owner }
func orderKey(owner string) string   { return redisPrefix + owner + ":order" }
func channelKey(owner string) string { return redisPrefix + owner + ":events" }
func historyKey(owner string) string { return redisHistoryPrefix + owner }

func (s *RedisStore) ListDocuments(ctx context.Context, owner string) ([]models.Document, error) {
	ids, err := s.client.ZRange(ctx, orderKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}
	out := make([]models.Document, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, docsKey(owner), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// order entry without a body; a concurrent delete won the race
			continue
		}
		var d models.Document
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			s.log.Warn("skipping unreadable stored document", zap.String("owner", owner), zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		out = append(out, d.Clone())
	}
	return out, nil
}

func (s *RedisStore) SaveDocument(ctx context.Context, owner string, doc models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	event, err := json.Marshal(Change{Op: ChangeSaved, Owner: owner, ID: doc.ID, Document: &doc})
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, docsKey(owner), doc.ID, data)
	pipe.ZAddNX(ctx, orderKey(owner), redis.Z{Score: float64(doc.UploadedAt.UnixNano()), Member: doc.ID})
	pipe.Publish(ctx, channelKey(owner), event)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteDocument(ctx context.Context, owner, id string) error {
	event, err := json.Marshal(Change{Op: ChangeDeleted, Owner: owner, ID: id})
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, docsKey(owner), id)
	pipe.ZRem(ctx, orderKey(owner), id)
	pipe.Publish(ctx, channelKey(owner), event)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadHistory(ctx context.Context, owner string) ([]models.Message, error) {
	raw, err := s.client.Get(ctx, historyKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
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

func (s *RedisStore) SaveHistory(ctx context.Context, owner string, msgs []models.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.client.Set(ctx, historyKey(owner), data, 0).Err(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Subscribe listens on the owner's channel. Saved events carry the full
// document.
func (s *RedisStore) Subscribe(ctx context.Context, owner string, fn func(Change)) (func(), error) {
	ps := s.client.Subscribe(ctx, channelKey(owner))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe documents: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ch := ps.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				s.dispatch(owner, msg.Payload, fn)
			}
		}
	}()

	return func() {
		cancel()
		_ = ps.Close()
		<-done
	}, nil
}

func (s *RedisStore) dispatch(owner, payload string, fn func(Change)) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		s.log.Warn("ignoring malformed document event", zap.String("owner", owner), zap.Error(err))
		return
	}
	if c.Op == ChangeSaved && c.Document == nil {
		return
	}
	fn(c)
}
