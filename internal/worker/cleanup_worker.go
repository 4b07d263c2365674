package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/config"
)

// CleanupWorker drains the cleanup queue after submissions, deleting the
// session's Redis keys. The attempt row already holds the final answers and
// score, so losing a cleanup entry leaks a few keys at worst.
type CleanupWorker struct {
	redis *redis.Client
	log   zerolog.Logger
}

// NewCleanupWorker creates a CleanupWorker.
func NewCleanupWorker(rdb *redis.Client, log zerolog.Logger) *CleanupWorker {
	return &CleanupWorker{
		redis: rdb,
		log:   log.With().Str("component", "cleanup_worker").Logger(),
	}
}

// Run blocks draining the queue until ctx is cancelled.
func (w *CleanupWorker) Run(ctx context.Context) {
	w.log.Info().Msg("Cleanup worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Cleanup worker stopped")
			return
		default:
		}

		res, err := w.redis.BLPop(ctx, 5*time.Second, config.WorkerKey.SessionCleanupQueue).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		attemptID := res[1]
		if err := w.redis.Del(ctx,
			config.CacheKey.AttemptStartKey(attemptID),
			config.CacheKey.AttemptOrderKey(attemptID),
			config.CacheKey.AttemptAnswersKey(attemptID),
		).Err(); err != nil {
			w.log.Error().Err(err).Str("attempt_id", attemptID).Msg("Failed to delete session keys")
			continue
		}

		w.log.Debug().Str("attempt_id", attemptID).Msg("Session keys cleaned")
	}
}
