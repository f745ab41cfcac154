package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contentwriter/api/internal/model"
)

var (
	ErrResultNotFound = errors.New("result not found")
	ErrTopicsNotFound = errors.New("related topics not found")
)

const (
	lastResultKeyPattern = "result:last:%s"
	currentGenKeyPattern = "result:current:%s"
	lastTopicsKeyPattern = "topics:last:%s"
	defaultResultTTL     = 24 * time.Hour
	maxSupersedeRetries  = 3
)

// ResultStore holds the last generation result and related topics of each
// user. Each new result overwrites the previous one and clears its topics.
type ResultStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewResultStore(redisClient *redis.Client) *ResultStore {
	return &ResultStore{redis: redisClient, ttl: defaultResultTTL}
}

// SaveResult replaces the user's last result and resets the topics slot.
func (s *ResultStore) SaveResult(ctx context.Context, result *model.GenerationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fmt.Sprintf(lastResultKeyPattern, result.UserID), data, s.ttl)
		pipe.Set(ctx, fmt.Sprintf(currentGenKeyPattern, result.UserID), result.ID, s.ttl)
		pipe.Del(ctx, fmt.Sprintf(lastTopicsKeyPattern, result.UserID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// LastResult returns the user's last result.
func (s *ResultStore) LastResult(ctx context.Context, userID string) (*model.GenerationResult, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf(lastResultKeyPattern, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	var result model.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	result.UserID = userID
	return &result, nil
}

// CurrentGeneration returns the id of the user's last result.
func (s *ResultStore) CurrentGeneration(ctx context.Context, userID string) (string, error) {
	id, err := s.redis.Get(ctx, fmt.Sprintf(currentGenKeyPattern, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrResultNotFound
		}
		return "", err
	}
	return id, nil
}

// SaveTopics writes topics only while their generation is still the user's
// last result. It reports false when the generation has been superseded.
func (s *ResultStore) SaveTopics(ctx context.Context, userID string, topics *model.RelatedTopicsResult) (bool, error) {
	data, err := json.Marshal(topics)
	if err != nil {
		return false, err
	}

	currentKey := fmt.Sprintf(currentGenKeyPattern, userID)
	topicsKey := fmt.Sprintf(lastTopicsKeyPattern, userID)
	saved := false

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, currentKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != topics.GenerationID {
			saved = false
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, topicsKey, data, s.ttl)
			return nil
		})
		if err == nil {
			saved = true
		}
		return err
	}

	for i := 0; i < maxSupersedeRetries; i++ {
		err = s.redis.Watch(ctx, txf, currentKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to save related topics: %w", err)
		}
		return saved, nil
	}
	return false, nil
}

// LastTopics returns the related topics of the user's last result.
func (s *ResultStore) LastTopics(ctx context.Context, userID string) (*model.RelatedTopicsResult, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf(lastTopicsKeyPattern, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTopicsNotFound
		}
		return nil, err
	}

	var topics model.RelatedTopicsResult
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("failed to decode related topics: %w", err)
	}
	return &topics, nil
}
