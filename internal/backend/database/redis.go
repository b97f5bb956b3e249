package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "peanut:evaluation:"
	redisIndexKey  = "peanut:evaluations"
)

// RedisDatabase stores each evaluation as a JSON string and keeps a sorted set of IDs
// scored by creation time for newest-first listing
type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase accepts a redis URL such as redis://localhost:6379/0
func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	options, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}
	return &RedisDatabase{client: redis.NewClient(options)}, nil
}

// CreateDatabase only verifies connectivity; redis needs no schema
func (r *RedisDatabase) CreateDatabase(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisDatabase) DoesDatabaseExist(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) SaveEvaluation(ctx context.Context, record evaluator.ResultRecord) (*StoredEvaluation, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}
	stored := &StoredEvaluation{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Record:    record,
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluation: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+id, payload, 0)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(stored.CreatedAt.UnixNano()), Member: id})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store evaluation: %w", err)
	}
	return stored, nil
}

func (r *RedisDatabase) GetEvaluationByID(ctx context.Context, id string) (*StoredEvaluation, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var stored StoredEvaluation
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation %s: %w", id, err)
	}
	return &stored, nil
}

func (r *RedisDatabase) ListEvaluations(ctx context.Context, limit int) ([]*StoredEvaluation, error) {
	if limit <= 0 {
		return []*StoredEvaluation{}, nil
	}
	ids, err := r.client.ZRevRange(ctx, redisIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	evaluations := make([]*StoredEvaluation, 0, len(ids))
	for _, id := range ids {
		stored, err := r.GetEvaluationByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// index entry without payload, e.g. key removed externally
			continue
		}
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, stored)
	}
	return evaluations, nil
}

func (r *RedisDatabase) DeleteEvaluation(ctx context.Context, id string) error {
	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, redisKeyPrefix+id)
		pipe.ZRem(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		return err
	}
	if deleted.Val() == 0 {
		return ErrNotFound
	}
	return nil
}
