package models

import (
	"time"
)

// WalletEntry is one row of a wallet's embedded transaction log. The entry for
// a given reference and the top-level Transaction record for that reference
// must converge to the same terminal status.
type WalletEntry struct {
	Type        string    `bson:"type" json:"type"` // credit, debit
	Amount      float64   `bson:"amount" json:"amount"`
	Reference   string    `bson:"reference" json:"reference"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Status      string    `bson:"status" json:"status"` // pending, success, failed
	Meta        Meta      `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// ReservedAccount binds a wallet to a dedicated funding account at the
// bank-transfer provider. MerchantReference is how funding webhooks find us.
type ReservedAccount struct {
	AccountNumber     string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	AccountName       string `bson:"accountName,omitempty" json:"accountName,omitempty"`
	BankName          string `bson:"bankName,omitempty" json:"bankName,omitempty"`
	MerchantReference string `bson:"merchantReference,omitempty" json:"merchantReference,omitempty"`
}

// Wallet holds a user's (or the company's) spendable balance. Balance is only
// ever mutated through server-side $inc updates issued by the wallet store.
type Wallet struct {
	ID              string           `bson:"_id,omitempty" json:"id"`
	UserID          string           `bson:"userid,omitempty" json:"userid,omitempty"`
	IsCompanyWallet bool             `bson:"is_company_wallet,omitempty" json:"is_company_wallet,omitempty"`
	Balance         float64          `bson:"balance" json:"balance"`
	Currency        string           `bson:"currency" json:"currency"`
	ReservedAccount *ReservedAccount `bson:"reservedAccount,omitempty" json:"reservedAccount,omitempty"`
	Transactions    []WalletEntry    `bson:"transactions,omitempty" json:"transactions,omitempty"`
	CreatedAt       time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `bson:"updated_at" json:"updated_at"`
}
