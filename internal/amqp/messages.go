package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrMissingAccountID = errors.New("ledger export message without account_id")

// LedgerExportMessage asks the worker to rebuild and export one account's
// ledger. It carries only the id; the worker loads the current events itself.
type LedgerExportMessage struct {
	AccountID   string    `json:"account_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewLedgerExportMessage(accountID string) *LedgerExportMessage {
	return &LedgerExportMessage{
		AccountID:   accountID,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerExportMessageFromJSON decodes a message and rejects one without an account.
func LedgerExportMessageFromJSON(data []byte) (*LedgerExportMessage, error) {
	var msg LedgerExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.AccountID) == "" {
		return nil, ErrMissingAccountID
	}
	return &msg, nil
}
