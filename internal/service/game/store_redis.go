package game

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "board:game:"
	playerIndexPrefix = "board:index:player:"
	maxTxAttempts     = 5
)

// errNoWrite lets an update callback finish without writing the session back.
var errNoWrite = errors.New("no write")

// SessionStore keeps live sessions in Redis as JSON documents with a TTL.
// Writers go through Update, which uses WATCH/MULTI on the session key.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(redisURL string, ttl time.Duration) (*SessionStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for session store")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewSessionStoreWithClient(rdb, ttl), nil
}

func NewSessionStoreWithClient(rdb *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func (s *SessionStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Ping reports whether Redis answers.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *SessionStore) Create(ctx context.Context, p *sessionPayload) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("cannot save session without id")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.SetNX(ctx, sessionKey(p.ID), raw, s.ttl)
	if p.PlayerID != "" {
		idx := playerIndexKey(p.PlayerID)
		pipe.SAdd(ctx, idx, p.ID)
		pipe.Expire(ctx, idx, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (*sessionPayload, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &p, nil
}

// Update runs fn against the current document and writes the result back in
// one MULTI. A concurrent write to the same key restarts the attempt; after
// maxTxAttempts the call fails with ErrConflict. fn may run more than once.
// Returning errNoWrite from fn skips the write and yields the unchanged document.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(p *sessionPayload) error) (*sessionPayload, error) {
	key := sessionKey(id)
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		var out *sessionPayload
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			if err != nil {
				return err
			}
			var cur sessionPayload
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("decode session: %w", err)
			}
			if err := fn(&cur); err != nil {
				if errors.Is(err, errNoWrite) {
					out = &cur
					return nil
				}
				return err
			}
			cur.Version++
			cur.UpdatedAt = time.Now()
			next, err := json.Marshal(&cur)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
			pipe := tx.TxPipeline()
			pipe.Set(ctx, key, next, s.ttl)
			if cur.PlayerID != "" {
				// 인덱스 키 TTL도 갱신하여 누적 방지(세션 TTL과 동일)
				pipe.Expire(ctx, playerIndexKey(cur.PlayerID), s.ttl)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
			out = &cur
			return nil
		}, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	p, err := s.Load(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	if p.PlayerID != "" {
		pipe.SRem(ctx, playerIndexKey(p.PlayerID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// PlayerSessions returns the live sessions indexed under playerID, dropping
// ids whose documents already expired.
func (s *SessionStore) PlayerSessions(ctx context.Context, playerID string) ([]*sessionPayload, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, nil
	}
	idx := playerIndexKey(playerID)
	ids, err := s.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return nil, fmt.Errorf("list player sessions: %w", err)
	}
	out := make([]*sessionPayload, 0, len(ids))
	for _, id := range ids {
		p, err := s.Load(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			// 만료된 세션은 인덱스에서 정리
			_ = s.rdb.SRem(ctx, idx, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func sessionKey(id string) string { return sessionKeyPrefix + strings.TrimSpace(id) }
func playerIndexKey(id string) string { return playerIndexPrefix + strings.TrimSpace(id) }

// ParseRedisURL accepts redis:// and rediss:// URLs with an optional /db path.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("redis url has no host")
	}
	port := u.Port()
	if port == "" {
		port = "6379"
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{
		Addr:     host + ":" + port,
		Username: u.User.Username(),
		Password: pass,
		DB:       db,
	}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
