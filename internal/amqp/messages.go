package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEventMessage carries a recorded transaction to the companion
// worker. It stays lightweight: the worker refetches the row when it needs
// more than the routing fields below.
type TransactionEventMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(id, userID, txType, category string, amountCents int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:          id,
		UserID:      userID,
		Type:        txType,
		AmountCents: amountCents,
		Category:    category,
		Timestamp:   time.Now(),
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
