package models

import "time"

// Notification event kinds emitted by financial operations.
const (
	EventTransferSent     = "TRANSFER_SENT"
	EventTransferReceived = "TRANSFER_RECEIVED"
	EventDeposit          = "DEPOSIT"
	EventWithdrawal       = "WITHDRAWAL"
	EventTradeExecuted    = "TRADE_EXECUTED"
	EventReversal         = "REVERSAL"
)

// OutboxEvent is a notification queued inside a financial transaction and
// published after commit by the outbox worker. A publish failure leaves the
// event pending for a later attempt; it never unwinds the financial
// operation that queued it.
type OutboxEvent struct {
	ID            string     `json:"id"`
	AccountNumber string     `json:"account_number"`
	Kind          string     `json:"kind"`
	Payload       []byte     `json:"payload"`
	CreatedAt     time.Time  `json:"created_at"`
	Dispatched    bool       `json:"dispatched"`
	DispatchedAt  *time.Time `json:"dispatched_at,omitempty"`
}
