package models

import (
	"time"
)

// Meta is a generic key-value map for transaction metadata
type Meta map[string]interface{}

// Transaction statuses. A transaction is terminal once success or failed;
// the only mutation allowed afterwards is the one-shot refund bookkeeping.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Transaction types
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// Transaction is the system-of-record for one purchase or credit attempt.
// Records are never deleted; reconcilers and orchestrators only move them
// forward through the pending -> success/failed lifecycle.
type Transaction struct {
	ID          string  `bson:"_id,omitempty" json:"id"`
	WalletID    string  `bson:"walletid,omitempty" json:"walletid,omitempty"`
	UserID      string  `bson:"userid,omitempty" json:"userid,omitempty"`
	Type        string  `bson:"type" json:"type"` // debit, credit
	Amount      float64 `bson:"amount" json:"amount"`
	Reference   string  `bson:"reference" json:"reference"` // <= 17 chars for provider compatibility
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Status      string  `bson:"status" json:"status"` // pending, success, failed

	// Meta keys in use: provider, providerService, providerRef, webhook,
	// providerResponse, reason, merchant_reference, wiaxy_ref, mode.
	Meta Meta `bson:"meta,omitempty" json:"meta,omitempty"`

	Refunded       bool       `bson:"refunded" json:"refunded"`
	RefundedAt     *time.Time `bson:"refunded_at,omitempty" json:"refunded_at,omitempty"`
	RefundedAmount float64    `bson:"refunded_amount,omitempty" json:"refunded_amount,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Terminal reports whether the transaction reached a final state.
func (t *Transaction) Terminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}
