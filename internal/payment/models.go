// Package payment hosts the server-side payment gateway integration: the
// initialize/verify proxy endpoints, money conversion helpers, and the
// transaction record trail.
package payment

import "time"

// TransactionStatus tracks the local view of a payment's lifecycle. The
// gateway records what it forwarded and what Paystack answered; Paystack
// remains the source of truth for settlement.
type TransactionStatus string

const (
	StatusInitialized TransactionStatus = "initialized"
	StatusVerified    TransactionStatus = "verified"
	StatusFailed      TransactionStatus = "failed"
)

// Transaction is one payment attempt as seen by this gateway.
type Transaction struct {
	Reference string            `json:"reference"`
	Email     string            `json:"email"`
	// Amount is in the currency's smallest unit (kobo, cents).
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
