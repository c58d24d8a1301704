package catalog

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/peekabooshades/pricing-api/internal/lock"
)

// TaskSettingsWarmup reloads the pricing configuration snapshot after an
// invalidation.
const TaskSettingsWarmup = "pricing:settings:warmup"

// warmupLockKey guards the refresh so only one worker hits the store when
// several warmup tasks land at once.
const warmupLockKey = "pricing:settings:warmup-lock"

// NewSettingsWarmupTask builds the warmup task. It carries no payload; the
// handler always reloads the full snapshot.
func NewSettingsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskSettingsWarmup, nil, asynq.MaxRetry(3))
}

// TaskHandler processes catalog background tasks.
type TaskHandler struct {
	Snapshot *Snapshot
	Lock     *lock.Mutex
	Logger   *zerolog.Logger
}

// Register attaches the catalog task handlers to an asynq mux.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskSettingsWarmup, h.HandleSettingsWarmup)
}

// HandleSettingsWarmup refreshes the snapshot from the store.
func (h *TaskHandler) HandleSettingsWarmup(ctx context.Context, _ *asynq.Task) error {
	if h.Snapshot == nil {
		return ErrStoreUnavailable
	}
	refresh := h.Snapshot.Refresh
	if h.Lock != nil {
		refresh = func(ctx context.Context) error {
			return h.Lock.Do(ctx, warmupLockKey, 30*time.Second, h.Snapshot.Refresh)
		}
	}
	if err := refresh(ctx); err != nil {
		if h.Logger != nil {
			h.Logger.Error().Err(err).Msg("settings warmup failed")
		}
		return err
	}
	if h.Logger != nil {
		h.Logger.Info().Msg("pricing settings warmed up")
	}
	return nil
}
