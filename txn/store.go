package txn

import (
	"context"
	"errors"

	"kwickpay/models"
)

var (
	ErrNotFound  = errors.New("transaction not found")
	ErrDuplicate = errors.New("duplicate transaction reference")
)

// Store is the authoritative, provider-agnostic record of every purchase
// attempt and funding credit. Records are created pending (purchases) or
// success (funding credits) and only move forward; nothing is ever deleted.
type Store interface {
	// Create inserts a new record. Unique indexes turn a replayed reference
	// into ErrDuplicate instead of a second record.
	Create(ctx context.Context, t *models.Transaction) error

	ByReference(ctx context.Context, reference, provider string) (*models.Transaction, error)

	// ByFundingKeys locates a funding transaction by the three correlating
	// identifiers carried on bank-transfer notifications.
	ByFundingKeys(ctx context.Context, reference, merchantRef, wiaxyRef string) (*models.Transaction, error)

	ByUserReference(ctx context.Context, userID, reference string) (*models.Transaction, error)

	// SetStatus moves a record to the given status and merges the patch keys
	// into meta.
	SetStatus(ctx context.Context, id, status string, metaPatch models.Meta) error

	// MarkRefunded records the one-shot refund bookkeeping.
	MarkRefunded(ctx context.Context, id string, amount float64) error

	ListByUser(ctx context.Context, userID string, limit, skip int64) ([]models.Transaction, error)
}
