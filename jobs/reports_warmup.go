package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sa-stockmaster/sa-stockmaster/internal/reports"
)

const (
	// TaskReportsWarmup pre-computes the dashboard block so the first morning
	// request hits a warm cache.
	TaskReportsWarmup = "reports:warmup"
)

// ReportsWarmupPayload carries scheduling metadata.
type ReportsWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReportsWarmupTask constructs an Asynq task for the dashboard warmup.
func NewReportsWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ReportsWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, body, asynq.Queue(QueueDefault)), nil
}

// ReportsWarmupJob refreshes cached report blocks.
type ReportsWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
}

// NewReportsWarmupJob initialises the warmup handler.
func NewReportsWarmupJob(reports *reports.Service, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: reports, Logger: logger}
}

// Handle executes the warmup.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Bump first so the warmup loads fresh aggregates instead of re-serving
	// yesterday's cache entry.
	j.Reports.HandleStockChanged(ctx)
	stats, err := j.Reports.Dashboard(ctx)
	if err != nil {
		logger.Error("dashboard warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard warmed",
		slog.Int64("products", stats.TotalProducts),
		slog.Int64("low_stock", stats.LowStockCount))
	return nil
}
