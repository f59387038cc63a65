// Package services orchestrates the stores, the event publisher and the
// companion progression rules behind the HTTP handlers and the worker.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finpal/internal/amqp"
	"finpal/internal/backend"
	"finpal/internal/core"
	applog "finpal/internal/log"
)

// EventPublisher is the slice of the AMQP client the transaction service
// needs. A nil publisher means events are skipped, not failed.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error
}

type TransactionService struct {
	store     backend.Store
	publisher EventPublisher
}

func NewTransactionService(store backend.Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// TransactionInput is what a caller provides; the service assigns identity
// and record time.
type TransactionInput struct {
	UserID          string
	Description     string
	Amount          core.Money
	Type            core.TransactionType
	Category        string
	TransactionDate time.Time
}

// CreateTransaction validates, persists and announces a transaction. The
// save is authoritative: a failed event publish is logged and swallowed.
func (s *TransactionService) CreateTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	now := time.Now()
	txDate := in.TransactionDate
	if txDate.IsZero() {
		txDate = now
	}

	t := core.Transaction{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Description:     in.Description,
		Amount:          in.Amount,
		Type:            in.Type,
		Category:        in.Category,
		TransactionDate: txDate,
		CreatedAt:       now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishEvent(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldTxID, t.ID, applog.FieldError, err)
		// Don't fail the request - the transaction is saved
	}

	return t, nil
}

func (s *TransactionService) publishEvent(ctx context.Context, t core.Transaction) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping transaction event")
		return nil
	}
	msg := amqp.NewTransactionEventMessage(t.ID, t.UserID, string(t.Type), t.Category, t.Amount.Cents)
	return s.publisher.PublishTransactionEvent(ctx, msg)
}
