// Package worker hosts the background loops that drain Redis queues into
// Postgres. Each worker is a single goroutine blocking on its queue; the
// Redis hash stays authoritative for a live session, the jsonb column is the
// durable shadow.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/config"
)

// AnswerMerger persists a batch of autosaved answers onto an attempt row.
type AnswerMerger interface {
	MergeAnswers(ctx context.Context, id uuid.UUID, answers map[string]string) error
}

// AutosaveWorker drains the persist queue: for each enqueued attempt it reads
// the full Redis answer hash and folds it into the attempt's jsonb column.
// The queue entry is just the attempt id, so bursts of saves for one attempt
// collapse into repeated cheap merges of the same hash.
type AutosaveWorker struct {
	redis    *redis.Client
	attempts AnswerMerger
	log      zerolog.Logger
}

// NewAutosaveWorker creates an AutosaveWorker.
func NewAutosaveWorker(rdb *redis.Client, attempts AnswerMerger, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		redis:    rdb,
		attempts: attempts,
		log:      log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Run blocks draining the queue until ctx is cancelled.
func (w *AutosaveWorker) Run(ctx context.Context) {
	w.log.Info().Msg("Autosave worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Autosave worker stopped")
			return
		default:
		}

		res, err := w.redis.BLPop(ctx, 5*time.Second, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Queue pop failed")
			time.Sleep(time.Second)
			continue
		}

		// BLPop returns [queue, value].
		if len(res) < 2 {
			continue
		}
		w.persist(ctx, res[1])
	}
}

func (w *AutosaveWorker) persist(ctx context.Context, rawID string) {
	attemptID, err := uuid.Parse(rawID)
	if err != nil {
		w.log.Warn().Str("value", rawID).Msg("Discarding malformed queue entry")
		return
	}

	answers, err := w.redis.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(rawID)).Result()
	if err != nil {
		w.log.Error().Err(err).Str("attempt_id", rawID).Msg("Failed to read answer hash")
		return
	}
	if len(answers) == 0 {
		return
	}

	if err := w.attempts.MergeAnswers(ctx, attemptID, answers); err != nil {
		w.log.Error().Err(err).Str("attempt_id", rawID).Msg("Failed to persist answers")
		return
	}

	w.log.Debug().
		Str("attempt_id", rawID).
		Int("answers", len(answers)).
		Msg("Answers persisted")
}
