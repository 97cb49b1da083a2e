// Package redis provides Redis-based adapters for sessions and login throttling.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/ports"
)

// ErrNotFound is returned when a session is missing or expired.
var ErrNotFound = ports.ErrSessionNotFound

// SessionStore is a Redis-based session store. Each session is a JSON value
// whose TTL follows ExpiresAt; a per-user set indexes session IDs so every
// session of a user can be revoked at once.
//
// Session keys are <prefix><id> and index keys <prefix minus ':'>_user:<uid>,
// so no session id can address an index set. Every command touches a single
// key, which keeps the store usable on Redis Cluster.
type SessionStore struct {
	client     redis.UniversalClient
	prefix     string
	userPrefix string
	now        func() time.Time
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, "session:")
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
// A ':' separator is appended to prefix when missing.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	base := strings.TrimSuffix(prefix, ":")
	return &SessionStore{
		client:     client,
		prefix:     base + ":",
		userPrefix: base + "_user:",
		now:        time.Now,
	}
}

func (s *SessionStore) key(id string) string         { return s.prefix + id }
func (s *SessionStore) userKey(userID string) string { return s.userPrefix + userID }

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// The user index lives as long as the longest session in it.
	indexTTL := ttl
	if sess.UserID != "" {
		if cur, ttlErr := s.client.TTL(ctx, s.userKey(sess.UserID)).Result(); ttlErr == nil && cur > indexTTL {
			indexTTL = cur
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		if sess.UserID != "" {
			uk := s.userKey(sess.UserID)
			pipe.SAdd(ctx, uk, sess.ID)
			pipe.Expire(ctx, uk, indexTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	if sess.Expired(s.now()) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	// Read the owner first so the user index stays in step; a missing value
	// just means there is nothing to unlink.
	var userID string
	if data, err := s.client.Get(ctx, s.key(id)).Result(); err == nil {
		var sess domainauth.Session
		if json.Unmarshal([]byte(data), &sess) == nil {
			userID = sess.UserID
		}
	} else if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis get: %w", err)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		if userID != "" {
			pipe.SRem(ctx, s.userKey(userID), id)
		}
		return nil
	})
	return err
}

// DeleteByUser removes every session indexed under userID.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	uk := s.userKey(userID)
	ids, err := s.client.SMembers(ctx, uk).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// One DEL per key: session keys hash to different cluster slots.
	dels := make([]*redis.IntCmd, 0, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			dels = append(dels, pipe.Del(ctx, s.key(id)))
		}
		pipe.Del(ctx, uk)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis delete sessions: %w", err)
	}
	removed := 0
	for _, c := range dels {
		removed += int(c.Val())
	}
	return removed, nil
}
