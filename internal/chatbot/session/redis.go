package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	commonerrors "infotec-chatbot/internal/common/errors"
	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/models"
)

const sessionKeyPrefix = "chat:session:"

// RedisStore keeps session history in Redis lists so multiple chatbot
// instances share the same conversations.
type RedisStore struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
	logger   logger.Logger
}

func NewRedisStore(client *redis.Client, maxTurns int, ttl time.Duration, log logger.Logger) *RedisStore {
	if maxTurns <= 0 {
		maxTurns = MaxTurns
	}
	return &RedisStore{
		client:   client,
		maxTurns: maxTurns,
		ttl:      ttl,
		logger: log.With(map[string]interface{}{
			"component": "session-store",
		}),
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", commonerrors.ErrCodeSessionStoreFailed, err)
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			s.logger.Warn("dropping undecodable turn", map[string]interface{}{
				"sessionID": sessionID,
				"error":     err.Error(),
			})
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, turn models.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("%s: %w", commonerrors.ErrCodeSessionStoreFailed, err)
	}

	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", commonerrors.ErrCodeSessionStoreFailed, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", commonerrors.ErrCodeSessionStoreFailed, err)
	}
	return nil
}

func (s *RedisStore) ClearAll(ctx context.Context) (int, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", commonerrors.ErrCodeSessionStoreFailed, err)
	}
	return len(keys), nil
}

func (s *RedisStore) ActiveSessions(ctx context.Context) ([]string, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, sessionKeyPrefix))
	}
	return ids, nil
}

func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", commonerrors.ErrCodeSessionStoreFailed, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
