package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verigate/internal/session"
	dErrors "verigate/pkg/domain-errors"
)

const (
	sessionKeyPrefix = "vg:session:"
	sessionIDSetKey  = "vg:sessions"

	// executeRetries bounds optimistic-lock retries when a concurrent writer
	// races an Execute call.
	executeRetries = 5
)

// RedisStore is the shared registry for multi-instance deployments. Records
// carry a TTL as a backstop so crashed instances cannot strand sessions
// forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed registry. ttl should comfortably
// exceed the session timeout; the manager retires expired records well before
// the TTL fires.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisStore) Save(ctx context.Context, sess *session.Session) error {
	if sess.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "session id is required")
	}
	encoded, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), encoded, s.ttl)
	pipe.SAdd(ctx, sessionIDSetKey, sess.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		// The record may have TTL-expired while still listed; drop the
		// dangling set member.
		_ = s.client.SRem(ctx, sessionIDSetKey, id).Err()
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, sessionIDSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) IDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, sessionIDSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// Execute applies mutate under optimistic locking (WATCH/MULTI). A concurrent
// write aborts the transaction and the read-mutate-write cycle retries.
func (s *RedisStore) Execute(ctx context.Context, id string, mutate func(*session.Session) error) (*session.Session, error) {
	key := sessionKey(id)
	var result *session.Session

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
		var sess session.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := mutate(&sess); err != nil {
			return err
		}
		encoded, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = &sess
		return nil
	}

	for i := 0; i < executeRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, dErrors.New(dErrors.CodeConflict, "session update contended, try again")
}
