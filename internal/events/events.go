// Package events publishes ledger events to a message bus after commit.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ledger_service/internal/domain"
	"ledger_service/internal/ledger"
)

// Event types
const (
	TransferCompleted = "transfer.completed"
)

// Stream (Redis) or subject (NATS) names
const (
	TransactionEventsStream = "transaction.events"
)

// Event is the envelope written to the bus.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransferCompletedEvent is the payload of TransferCompleted.
type TransferCompletedEvent struct {
	TransactionID string    `json:"transactionId"`
	FromAccountID string    `json:"fromAccountId"`
	ToAccountID   string    `json:"toAccountId"`
	Amount        string    `json:"amount"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Publisher writes one event to a stream or subject.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

func marshalEvent(eventType string, data any) ([]byte, error) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}

// NewTransferCompleted builds the payload for a committed transfer.
func NewTransferCompleted(tx *domain.Transaction) TransferCompletedEvent {
	return TransferCompletedEvent{
		TransactionID: tx.ID.String(),
		FromAccountID: tx.FromAccountID.String(),
		ToAccountID:   tx.ToAccountID.String(),
		Amount:        tx.Amount.StringFixed(2),
		Type:          tx.Type,
		CreatedAt:     tx.CreatedAt,
	}
}

// TransferHook returns a ledger.Hook that publishes TransferCompleted.
// Publish failures are logged; the transfer has already committed.
func TransferHook(p Publisher, log *logrus.Entry) ledger.Hook {
	return ledger.HookFunc(func(ctx context.Context, tx *domain.Transaction) {
		if err := p.Publish(ctx, TransactionEventsStream, TransferCompleted, NewTransferCompleted(tx)); err != nil {
			log.WithFields(logrus.Fields{
				"transaction_id": tx.ID,
				"error":          err.Error(),
			}).Error("Failed to publish transfer.completed event")
		}
	})
}
