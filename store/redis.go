package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTLHours = 72
	defaultPrefix   = "mediapipeline"
)

// RedisStore provides a Redis-backed implementation of CallStore,
// TranscriptStore, SummaryStore, and LocationStore. Records are
// JSON-serialized and keyed "prefix:{partition}:{row}".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the time-to-live for persisted records. Default is 72 hours.
// Set to 0 for no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithPrefix sets the Redis key prefix. Default is "mediapipeline".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    defaultTTLHours * time.Hour,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(callID, row string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, partitionKey(callID), row)
}

func (s *RedisStore) load(ctx context.Context, key string, dest any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// UpsertCall implements CallStore.
func (s *RedisStore) UpsertCall(ctx context.Context, rec CallRecord) error {
	if rec.CallID == "" {
		return ErrInvalidID
	}
	return s.save(ctx, s.key(rec.CallID, rowCall), rec)
}

// GetCall implements CallStore.
func (s *RedisStore) GetCall(ctx context.Context, callID string) (*CallRecord, error) {
	if callID == "" {
		return nil, ErrInvalidID
	}
	var rec CallRecord
	if err := s.load(ctx, s.key(callID, rowCall), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateStream implements CallStore with a read-modify-write over the
// existing CallRecord, via a WATCH/MULTI/EXEC optimistic transaction so
// concurrent OnStart/OnStop calls for the same call don't clobber each
// other's stream fields.
func (s *RedisStore) UpdateStream(ctx context.Context, callID, streamID string, active bool) error {
	return s.updateCall(ctx, callID, func(rec *CallRecord) {
		rec.HasActiveStream = active
		rec.StreamID = streamID
	})
}

// UpdateStatus implements CallStore with the same read-modify-write
// discipline as UpdateStream.
func (s *RedisStore) UpdateStatus(ctx context.Context, callID, status string) error {
	return s.updateCall(ctx, callID, func(rec *CallRecord) {
		rec.Status = status
	})
}

func (s *RedisStore) updateCall(ctx context.Context, callID string, mutate func(*CallRecord)) error {
	if callID == "" {
		return ErrInvalidID
	}
	key := s.key(callID, rowCall)
	txf := func(tx *redis.Tx) error {
		var rec CallRecord
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			rec = CallRecord{CallID: callID}
		case err != nil:
			return fmt.Errorf("redis get failed: %w", err)
		default:
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
		}

		mutate(&rec)

		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return s.updateCall(ctx, callID, mutate)
	}
	return err
}

// Append implements TranscriptStore. Each chunk is written under its own
// TranscriptTick row so ordering and tie-break survive per the store's
// partition/row contract.
func (s *RedisStore) Append(ctx context.Context, chunk TranscriptChunk) error {
	if chunk.CallID == "" {
		return ErrInvalidID
	}
	row := TranscriptTick(chunk.TimestampUTC)
	pipe := s.client.Pipeline()
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk: %w", err)
	}
	key := s.key(chunk.CallID, row)
	pipe.Set(ctx, key, data, s.ttl)
	pipe.SAdd(ctx, s.transcriptIndexKey(chunk.CallID), row)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.transcriptIndexKey(chunk.CallID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// List implements TranscriptStore, returning chunks ordered by row key.
func (s *RedisStore) List(ctx context.Context, callID string) ([]TranscriptChunk, error) {
	if callID == "" {
		return nil, ErrInvalidID
	}
	rows, err := s.client.SMembers(ctx, s.transcriptIndexKey(callID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}
	sort.Strings(rows)

	chunks := make([]TranscriptChunk, 0, len(rows))
	for _, row := range rows {
		var chunk TranscriptChunk
		if err := s.load(ctx, s.key(callID, row), &chunk); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (s *RedisStore) transcriptIndexKey(callID string) string {
	return fmt.Sprintf("%s:%s:transcript_rows", s.prefix, partitionKey(callID))
}

// UpsertSummary implements SummaryStore.
func (s *RedisStore) UpsertSummary(ctx context.Context, rec SummaryRecord) error {
	if rec.CallID == "" {
		return ErrInvalidID
	}
	return s.save(ctx, s.key(rec.CallID, rowSummary), rec)
}

// GetSummary implements SummaryStore.
func (s *RedisStore) GetSummary(ctx context.Context, callID string) (*SummaryRecord, error) {
	if callID == "" {
		return nil, ErrInvalidID
	}
	var rec SummaryRecord
	if err := s.load(ctx, s.key(callID, rowSummary), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertLocation implements LocationStore.
func (s *RedisStore) UpsertLocation(ctx context.Context, rec LocationRecord) error {
	if rec.CallID == "" {
		return ErrInvalidID
	}
	return s.save(ctx, s.key(rec.CallID, rowLocation), rec)
}

// GetLocation implements LocationStore.
func (s *RedisStore) GetLocation(ctx context.Context, callID string) (*LocationRecord, error) {
	if callID == "" {
		return nil, ErrInvalidID
	}
	var rec LocationRecord
	if err := s.load(ctx, s.key(callID, rowLocation), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

var (
	_ CallStore       = (*RedisStore)(nil)
	_ TranscriptStore = (*RedisStore)(nil)
	_ SummaryStore    = (*RedisStore)(nil)
	_ LocationStore   = (*RedisStore)(nil)
)
