package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/limiquantix/mlfq/internal/domain"
)

const (
	runIndexKey   = "runs"
	runEventsChan = "events:run"
)

func runKey(id string) string {
	return fmt.Sprintf("run:%s", id)
}

// RunRepository stores run records as JSON values indexed by start time.
type RunRepository struct {
	cache *Cache
	ttl   time.Duration
}

// NewRunRepository creates a Redis run repository. A ttl of zero keeps
// records forever.
func NewRunRepository(cache *Cache, ttl time.Duration) *RunRepository {
	return &RunRepository{cache: cache, ttl: ttl}
}

// Create stores a new run and publishes a run event.
func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	// Record and index are written in one MULTI/EXEC. ZAddNX leaves the
	// index untouched when the ID is already taken.
	var setCmd *redis.BoolCmd
	_, err = r.cache.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		setCmd = pipe.SetNX(ctx, runKey(run.ID), data, r.ttl)
		pipe.ZAddNX(ctx, runIndexKey, redis.Z{
			Score:  float64(run.StartedAt.UnixNano()),
			Member: run.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	if !setCmd.Val() {
		return fmt.Errorf("run %s already exists", run.ID)
	}

	event := Event{
		Type:       "run." + strings.ToLower(string(run.Status)),
		ResourceID: run.ID,
	}
	if err := r.cache.Publish(ctx, runEventsChan, event); err != nil {
		r.cache.logger.Warn("Failed to publish run event", zap.String("run_id", run.ID), zap.Error(err))
	}

	return nil
}

// Health checks that the backing Redis is reachable.
func (r *RunRepository) Health(ctx context.Context) error {
	return r.cache.Health(ctx)
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, id string) (*domain.Run, error) {
	var run domain.Run
	if err := r.cache.Get(ctx, runKey(id), &run); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}

// List returns up to limit runs, newest first. Index entries whose record
// has expired are pruned.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := r.cache.client.ZRevRange(ctx, runIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Run{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = runKey(id)
	}

	values, err := r.cache.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	runs := make([]*domain.Run, 0, len(values))
	var expired []interface{}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var run domain.Run
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			r.cache.logger.Warn("Failed to unmarshal run", zap.String("run_id", ids[i]), zap.Error(err))
			continue
		}
		runs = append(runs, &run)
	}

	if len(expired) > 0 {
		if err := r.cache.client.ZRem(ctx, runIndexKey, expired...).Err(); err != nil {
			r.cache.logger.Warn("Failed to prune expired runs", zap.Error(err))
		}
	}

	return runs, nil
}
