package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/noticeboard-app/noticeboard/internal/jobs"
	"github.com/noticeboard-app/noticeboard/internal/uploads"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeUploadSweep is the task type for removing orphaned uploads.
	TaskTypeUploadSweep = "uploads:sweep"
)

// UploadSweepPayload describes an orphaned-upload sweep run.
type UploadSweepPayload struct {
	MaxAge string `json:"max_age"`
}

// NewUploadSweepTask constructs an Asynq task for an upload sweep.
func NewUploadSweepTask(maxAge time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(UploadSweepPayload{MaxAge: maxAge.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeUploadSweep, data), nil
}

// AvatarIndex answers whether a stored upload is referenced by a user record.
type AvatarIndex interface {
	AvatarPathInUse(ctx context.Context, path string) (bool, error)
}

// NewUploadSweepHandler returns the handler that removes uploads older than
// the payload age which no user record references. Registration already
// deletes its own rejected uploads; the sweep catches files left behind by
// crashes between storing a file and responding.
func NewUploadSweepHandler(store *uploads.Store, index AvatarIndex, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload UploadSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		maxAge, err := time.ParseDuration(payload.MaxAge)
		if err != nil {
			return asynq.SkipRetry
		}

		tracker := metrics.Track("upload_sweep")
		removed, err := store.Sweep(maxAge, func(path string) (bool, error) {
			return index.AvatarPathInUse(ctx, path)
		})
		metrics.AddOrphansRemoved(removed)
		if removed > 0 {
			logger.Info("upload sweep", slog.Int("removed", removed))
		}
		return tracker.End(err)
	}
}
