package webhook

import (
	"context"

	"kwickpay/models"
	"kwickpay/txn"
	"kwickpay/wallet"
)

// In-memory stores backing the webhook handler tests.

type memWallets struct {
	wallets []*models.Wallet
	refunds int
	credits int
}

func (m *memWallets) ByUserID(_ context.Context, userID string) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.UserID == userID {
			return w, nil
		}
	}
	return nil, wallet.ErrNotFound
}

func (m *memWallets) CompanyWallet(_ context.Context) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.IsCompanyWallet {
			return w, nil
		}
	}
	return nil, wallet.ErrNotFound
}

func (m *memWallets) ByMerchantReference(_ context.Context, ref string) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.ReservedAccount != nil && w.ReservedAccount.MerchantReference == ref {
			return w, nil
		}
	}
	return nil, wallet.ErrNotFound
}

func (m *memWallets) byID(id string) *models.Wallet {
	for _, w := range m.wallets {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (m *memWallets) ReserveDebit(_ context.Context, walletID string, amount float64, entry models.WalletEntry) error {
	w := m.byID(walletID)
	if w == nil {
		return wallet.ErrNotFound
	}
	if w.Balance < amount {
		return wallet.ErrInsufficientFunds
	}
	w.Balance -= amount
	w.Transactions = append(w.Transactions, entry)
	return nil
}

func (m *memWallets) Credit(_ context.Context, walletID string, amount float64, entry models.WalletEntry) error {
	w := m.byID(walletID)
	if w == nil {
		return wallet.ErrNotFound
	}
	w.Balance += amount
	w.Transactions = append(w.Transactions, entry)
	m.credits++
	return nil
}

func (m *memWallets) Refund(_ context.Context, walletID string, amount float64, reference string) (bool, error) {
	w := m.byID(walletID)
	if w == nil {
		return false, nil
	}
	w.Balance += amount
	m.refunds++
	_ = m.SetEntryStatus(context.Background(), walletID, reference, models.StatusFailed)
	return true, nil
}

func (m *memWallets) SetEntryStatus(_ context.Context, walletID, reference, status string) error {
	w := m.byID(walletID)
	if w == nil {
		return wallet.ErrNotFound
	}
	for i := range w.Transactions {
		if w.Transactions[i].Reference == reference {
			w.Transactions[i].Status = status
		}
	}
	return nil
}

func (m *memWallets) Create(_ context.Context, w *models.Wallet) error {
	m.wallets = append(m.wallets, w)
	return nil
}

func (m *memWallets) BindReservedAccount(_ context.Context, walletID string, acc models.ReservedAccount) error {
	w := m.byID(walletID)
	if w == nil {
		return wallet.ErrNotFound
	}
	w.ReservedAccount = &acc
	return nil
}

func (m *memWallets) Balance(_ context.Context, walletID string) (float64, error) {
	w := m.byID(walletID)
	if w == nil {
		return 0, wallet.ErrNotFound
	}
	return w.Balance, nil
}

type memTxns struct {
	records []*models.Transaction
}

func (m *memTxns) Create(_ context.Context, t *models.Transaction) error {
	provider, _ := t.Meta["provider"].(string)
	for _, r := range m.records {
		rp, _ := r.Meta["provider"].(string)
		if r.Reference == t.Reference && rp == provider {
			return txn.ErrDuplicate
		}
	}
	m.records = append(m.records, t)
	return nil
}

func (m *memTxns) ByReference(_ context.Context, reference, provider string) (*models.Transaction, error) {
	for _, r := range m.records {
		if rp, _ := r.Meta["provider"].(string); r.Reference == reference && rp == provider {
			return r, nil
		}
	}
	return nil, txn.ErrNotFound
}

func (m *memTxns) ByFundingKeys(_ context.Context, reference, merchantRef, wiaxyRef string) (*models.Transaction, error) {
	for _, r := range m.records {
		if r.Reference == reference &&
			r.Meta["merchant_reference"] == merchantRef &&
			r.Meta["wiaxy_ref"] == wiaxyRef {
			return r, nil
		}
	}
	return nil, txn.ErrNotFound
}

func (m *memTxns) ByUserReference(_ context.Context, userID, reference string) (*models.Transaction, error) {
	for _, r := range m.records {
		if r.UserID == userID && r.Reference == reference {
			return r, nil
		}
	}
	return nil, txn.ErrNotFound
}

func (m *memTxns) SetStatus(_ context.Context, id, status string, metaPatch models.Meta) error {
	for _, r := range m.records {
		if r.ID == id {
			r.Status = status
			if r.Meta == nil {
				r.Meta = models.Meta{}
			}
			for k, v := range metaPatch {
				r.Meta[k] = v
			}
			return nil
		}
	}
	return txn.ErrNotFound
}

func (m *memTxns) MarkRefunded(_ context.Context, id string, amount float64) error {
	for _, r := range m.records {
		if r.ID == id && !r.Refunded {
			r.Refunded = true
			r.RefundedAmount = amount
			return nil
		}
	}
	return txn.ErrNotFound
}

func (m *memTxns) ListByUser(_ context.Context, userID string, _, _ int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}
