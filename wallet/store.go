package wallet

import (
	"context"
	"errors"

	"kwickpay/models"
)

var (
	ErrNotFound          = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)

// Store is the wallet ledger. Balance mutations are server-side signed-delta
// updates: debits are conditional on sufficient balance and fail closed, so a
// concurrent purchase and funding credit can never produce a lost update.
type Store interface {
	ByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	CompanyWallet(ctx context.Context) (*models.Wallet, error)
	ByMerchantReference(ctx context.Context, merchantRef string) (*models.Wallet, error)

	// ReserveDebit atomically decrements the balance and appends a pending
	// debit entry. Returns ErrInsufficientFunds when the conditional update
	// matches no document for a wallet that exists.
	ReserveDebit(ctx context.Context, walletID string, amount float64, entry models.WalletEntry) error

	// Credit atomically increments the balance and appends the given entry.
	Credit(ctx context.Context, walletID string, amount float64, entry models.WalletEntry) error

	// Refund returns a previously reserved amount and marks the matching
	// entry failed. Reports false when the wallet no longer matches, so the
	// caller can leave the refunded flag unset.
	Refund(ctx context.Context, walletID string, amount float64, reference string) (bool, error)

	// SetEntryStatus finalizes the embedded log entry for a reference so it
	// converges with the top-level transaction record.
	SetEntryStatus(ctx context.Context, walletID, reference, status string) error

	Create(ctx context.Context, w *models.Wallet) error
	BindReservedAccount(ctx context.Context, walletID string, acc models.ReservedAccount) error
	Balance(ctx context.Context, walletID string) (float64, error)
}
