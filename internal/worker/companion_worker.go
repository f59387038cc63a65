// Package worker runs the companion progression consumer: it turns
// transaction events into XP and keeps challenge completions bounded to
// their daily or weekly period.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"finpal/internal/amqp"
	"finpal/internal/core"
	applog "finpal/internal/log"
	"finpal/internal/services"
)

// EventSource is the consuming slice of the AMQP client.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(*amqp.TransactionEventMessage) error) error
}

// CompletionExpirer removes stale challenge completions.
type CompletionExpirer interface {
	ExpireChallengeCompletions(ctx context.Context, dailyBefore, weeklyBefore time.Time) (int64, error)
}

type CompanionWorker struct {
	source        EventSource
	companions    *services.CompanionService
	expirer       CompletionExpirer
	sweepInterval time.Duration
}

func NewCompanionWorker(source EventSource, companions *services.CompanionService, expirer CompletionExpirer, sweepInterval time.Duration) *CompanionWorker {
	return &CompanionWorker{
		source:        source,
		companions:    companions,
		expirer:       expirer,
		sweepInterval: sweepInterval,
	}
}

// Run consumes events and sweeps expired completions until the context is
// cancelled. Either loop failing stops the other.
func (w *CompanionWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.source.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
			return w.HandleTransactionEvent(ctx, msg)
		})
	})

	g.Go(func() error {
		return w.runSweepLoop(ctx)
	})

	return g.Wait()
}

// HandleTransactionEvent grants companion XP for the logged transaction.
func (w *CompanionWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		applog.FieldTxID, msg.ID,
		applog.FieldUserID, msg.UserID,
		applog.FieldTxType, msg.Type)

	txType := core.TransactionType(msg.Type)
	if !txType.Valid() {
		// Drop rather than requeue: the payload will never become valid
		slog.WarnContext(ctx, "Ignoring event with unknown transaction type",
			applog.FieldTxID, msg.ID, applog.FieldTxType, msg.Type)
		return nil
	}

	if err := w.companions.RecordTransactionActivity(ctx, msg.UserID, txType); err != nil {
		return fmt.Errorf("record transaction activity: %w", err)
	}
	return nil
}

func (w *CompanionWorker) runSweepLoop(ctx context.Context) error {
	// Sweep at startup so a long downtime doesn't leave stale completions
	// until the first tick.
	w.sweep(ctx)

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep expires completions from before today (daily) and before the start
// of the current ISO week (weekly). Errors are logged, not fatal; the next
// tick retries.
func (w *CompanionWorker) sweep(ctx context.Context) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := startOfWeek(now)

	removed, err := w.expirer.ExpireChallengeCompletions(ctx, dayStart, weekStart)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to expire challenge completions", applog.FieldError, err)
		return
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Expired challenge completions", "removed", removed)
	}
}

// startOfWeek returns midnight of the Monday of now's week.
func startOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started the previous Monday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
