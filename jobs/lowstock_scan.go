package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sa-stockmaster/sa-stockmaster/internal/reports"
	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
)

const (
	// TaskStockLowScan triggers the scheduled low stock sweep.
	TaskStockLowScan = "stock:lowscan"
)

// LowStockScanPayload carries scheduling metadata and the fallback recipient
// used when no alert address is configured in settings.
type LowStockScanPayload struct {
	ScheduledFor      time.Time `json:"scheduled_for"`
	FallbackRecipient string    `json:"fallback_recipient"`
}

// NewLowStockScanTask constructs an Asynq task for the low stock sweep.
func NewLowStockScanTask(at time.Time, fallbackRecipient string) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at, FallbackRecipient: fallbackRecipient})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowScan, body, asynq.Queue(QueueDefault)), nil
}

// Enqueuer submits follow-up jobs produced by a scan.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// SettingsPort supplies the configured alert recipient.
type SettingsPort interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// LowStockScanJob sweeps stock levels and mails a reorder digest when any
// product sits at or below its minimum stock level.
type LowStockScanJob struct {
	Reports  *reports.Service
	Settings SettingsPort
	Mailer   Enqueuer
	Logger   *slog.Logger
	clock    func() time.Time
}

// NewLowStockScanJob initialises the low stock sweep handler.
func NewLowStockScanJob(reports *reports.Service, settings SettingsPort, mailer Enqueuer, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{
		Reports:  reports,
		Settings: settings,
		Mailer:   mailer,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the low stock sweep.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	logger.Info("starting low stock sweep")

	items, err := j.Reports.LowStock(ctx)
	if err != nil {
		logger.Error("low stock sweep failed", slog.Any("error", err))
		return err
	}
	out, err := j.Reports.OutOfStock(ctx)
	if err != nil {
		logger.Error("out of stock sweep failed", slog.Any("error", err))
		return err
	}
	if len(items) == 0 && len(out) == 0 {
		logger.Info("low stock sweep clean")
		return nil
	}

	for _, item := range items {
		logger.Warn("low stock detected",
			slog.String("sku", item.SKU),
			slog.Int64("quantity", item.Quantity),
			slog.Int64("min_stock_level", item.MinStockLevel))
	}
	for _, item := range out {
		logger.Warn("out of stock",
			slog.String("sku", item.SKU))
	}

	recipient, err := j.recipient(ctx, payload.FallbackRecipient)
	if err != nil {
		return err
	}
	if recipient == "" || j.Mailer == nil {
		logger.Info("no alert recipient configured, skipping digest email")
		return nil
	}

	mail := SendEmailPayload{
		To:      recipient,
		Subject: fmt.Sprintf("Stock alert: %d low, %d out of stock", len(items), len(out)),
		Body:    buildDigest(j.now(), items, out),
	}
	if _, err := j.Mailer.EnqueueSendEmail(ctx, mail); err != nil {
		logger.Error("enqueue digest email", slog.Any("error", err))
		return err
	}
	logger.Info("low stock digest queued",
		slog.String("recipient", recipient),
		slog.Int("low", len(items)),
		slog.Int("out", len(out)))
	return nil
}

func (j *LowStockScanJob) recipient(ctx context.Context, fallback string) (string, error) {
	if j.Settings != nil {
		cfg, err := j.Settings.Get(ctx)
		if err != nil {
			return "", err
		}
		if cfg.CompanyEmail != "" {
			return cfg.CompanyEmail, nil
		}
	}
	return fallback, nil
}

func buildDigest(at time.Time, low, out []reports.StockItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock sweep at %s\n\n", at.Format(time.RFC3339))
	if len(out) > 0 {
		b.WriteString("Out of stock:\n")
		for _, item := range out {
			fmt.Fprintf(&b, "  %s  %s\n", item.SKU, item.Name)
		}
		b.WriteString("\n")
	}
	if len(low) > 0 {
		b.WriteString("Low stock:\n")
		for _, item := range low {
			fmt.Fprintf(&b, "  %s  %s  on hand %d, minimum %d\n",
				item.SKU, item.Name, item.Quantity, item.MinStockLevel)
		}
	}
	return b.String()
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *LowStockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
