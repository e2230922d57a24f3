package purchase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"kwickpay/epins"
	"kwickpay/models"
	"kwickpay/notify"
	"kwickpay/txn"
	"kwickpay/wallet"
)

type fakeWallets struct {
	wallets  map[string]*models.Wallet
	reserves int
	refunds  int
}

func newFakeWallets(balance float64) *fakeWallets {
	return &fakeWallets{wallets: map[string]*models.Wallet{
		"w1": {ID: "w1", UserID: "u1", Balance: balance, Currency: "NGN"},
	}}
}

func (f *fakeWallets) ByUserID(_ context.Context, userID string) (*models.Wallet, error) {
	for _, w := range f.wallets {
		if w.UserID == userID {
			return w, nil
		}
	}
	return nil, wallet.ErrNotFound
}

func (f *fakeWallets) CompanyWallet(_ context.Context) (*models.Wallet, error) {
	for _, w := range f.wallets {
		if w.IsCompanyWallet {
			return w, nil
		}
	}
	return nil, wallet.ErrNotFound
}

func (f *fakeWallets) ByMerchantReference(_ context.Context, ref string) (*models.Wallet, error) {
	for _, w := range f.wallets {
		if w.ReservedAccount != nil && w.ReservedAccount.MerchantReference == ref {
			return w, nil
		}
	}
	return nil, wallet.ErrNotFound
}

func (f *fakeWallets) ReserveDebit(_ context.Context, walletID string, amount float64, entry models.WalletEntry) error {
	w, ok := f.wallets[walletID]
	if !ok {
		return wallet.ErrNotFound
	}
	if w.Balance < amount {
		return wallet.ErrInsufficientFunds
	}
	w.Balance -= amount
	w.Transactions = append(w.Transactions, entry)
	f.reserves++
	return nil
}

func (f *fakeWallets) Credit(_ context.Context, walletID string, amount float64, entry models.WalletEntry) error {
	w, ok := f.wallets[walletID]
	if !ok {
		return wallet.ErrNotFound
	}
	w.Balance += amount
	w.Transactions = append(w.Transactions, entry)
	return nil
}

func (f *fakeWallets) Refund(_ context.Context, walletID string, amount float64, reference string) (bool, error) {
	w, ok := f.wallets[walletID]
	if !ok {
		return false, nil
	}
	w.Balance += amount
	f.refunds++
	_ = f.SetEntryStatus(context.Background(), walletID, reference, models.StatusFailed)
	return true, nil
}

func (f *fakeWallets) SetEntryStatus(_ context.Context, walletID, reference, status string) error {
	w, ok := f.wallets[walletID]
	if !ok {
		return wallet.ErrNotFound
	}
	for i := range w.Transactions {
		if w.Transactions[i].Reference == reference {
			w.Transactions[i].Status = status
		}
	}
	return nil
}

func (f *fakeWallets) Create(_ context.Context, w *models.Wallet) error {
	f.wallets[w.ID] = w
	return nil
}

func (f *fakeWallets) BindReservedAccount(_ context.Context, walletID string, acc models.ReservedAccount) error {
	w, ok := f.wallets[walletID]
	if !ok {
		return wallet.ErrNotFound
	}
	w.ReservedAccount = &acc
	return nil
}

func (f *fakeWallets) Balance(_ context.Context, walletID string) (float64, error) {
	w, ok := f.wallets[walletID]
	if !ok {
		return 0, wallet.ErrNotFound
	}
	return w.Balance, nil
}

type fakeTxns struct {
	byID  map[string]*models.Transaction
	byRef map[string]*models.Transaction
}

func newFakeTxns() *fakeTxns {
	return &fakeTxns{byID: map[string]*models.Transaction{}, byRef: map[string]*models.Transaction{}}
}

func (f *fakeTxns) Create(_ context.Context, t *models.Transaction) error {
	provider, _ := t.Meta["provider"].(string)
	key := t.Reference + "|" + provider
	if _, exists := f.byRef[key]; exists {
		return txn.ErrDuplicate
	}
	f.byID[t.ID] = t
	f.byRef[key] = t
	return nil
}

func (f *fakeTxns) ByReference(_ context.Context, reference, provider string) (*models.Transaction, error) {
	if t, ok := f.byRef[reference+"|"+provider]; ok {
		return t, nil
	}
	return nil, txn.ErrNotFound
}

func (f *fakeTxns) ByFundingKeys(_ context.Context, reference, merchantRef, wiaxyRef string) (*models.Transaction, error) {
	for _, t := range f.byID {
		if t.Reference == reference &&
			t.Meta["merchant_reference"] == merchantRef &&
			t.Meta["wiaxy_ref"] == wiaxyRef {
			return t, nil
		}
	}
	return nil, txn.ErrNotFound
}

func (f *fakeTxns) ByUserReference(_ context.Context, userID, reference string) (*models.Transaction, error) {
	for _, t := range f.byID {
		if t.UserID == userID && t.Reference == reference {
			return t, nil
		}
	}
	return nil, txn.ErrNotFound
}

func (f *fakeTxns) SetStatus(_ context.Context, id, status string, metaPatch models.Meta) error {
	t, ok := f.byID[id]
	if !ok {
		return txn.ErrNotFound
	}
	t.Status = status
	for k, v := range metaPatch {
		t.Meta[k] = v
	}
	return nil
}

func (f *fakeTxns) MarkRefunded(_ context.Context, id string, amount float64) error {
	t, ok := f.byID[id]
	if !ok || t.Refunded {
		return txn.ErrNotFound
	}
	t.Refunded = true
	t.RefundedAmount = amount
	return nil
}

func (f *fakeTxns) ListByUser(_ context.Context, userID string, _, _ int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range f.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func newTestService(fw *fakeWallets, ft *fakeTxns) *Service {
	return &Service{Wallets: fw, Txns: ft, Notify: notify.Nop{}}
}

func testIntent(w *models.Wallet, amount float64) intent {
	return intent{
		Kind:        "airtime",
		Service:     "airtime",
		Wallet:      w,
		UserID:      w.UserID,
		Amount:      amount,
		Reference:   "AIR123456ABCD",
		Description: "Airtime purchase for 08031234567",
	}
}

func result(o epins.Outcome) epins.Result {
	return epins.Result{Outcome: o, Raw: map[string]interface{}{}}
}

func TestSettleSuccessDebitsOnce(t *testing.T) {
	fw := newFakeWallets(4000)
	ft := newFakeTxns()
	s := newTestService(fw, ft)

	st, err := s.settle(context.Background(), testIntent(fw.wallets["w1"], 500),
		func(context.Context) epins.Result { return result(epins.OutcomeSuccess) },
		func(context.Context) epins.Result { t.Fatal("recheck must not run"); return epins.Result{} })

	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, st.Txn.Status)
	require.False(t, st.Refunded)
	require.Equal(t, float64(3500), fw.wallets["w1"].Balance)
	require.Equal(t, 1, fw.reserves)
	require.Equal(t, models.StatusSuccess, fw.wallets["w1"].Transactions[0].Status)
}

func TestSettleFailureRefunds(t *testing.T) {
	fw := newFakeWallets(4000)
	ft := newFakeTxns()
	s := newTestService(fw, ft)

	st, err := s.settle(context.Background(), testIntent(fw.wallets["w1"], 500),
		func(context.Context) epins.Result {
			r := result(epins.OutcomeFailed)
			r.Message = "insufficient float"
			return r
		},
		func(context.Context) epins.Result { t.Fatal("recheck must not run"); return epins.Result{} })

	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, st.Txn.Status)
	require.True(t, st.Refunded)
	require.True(t, st.Txn.Refunded)
	require.Equal(t, float64(4000), fw.wallets["w1"].Balance)
	require.Equal(t, 1, fw.refunds)
}

func TestSettleUncertainThenRecheckSuccess(t *testing.T) {
	fw := newFakeWallets(4000)
	ft := newFakeTxns()
	s := newTestService(fw, ft)

	rechecked := false
	st, err := s.settle(context.Background(), testIntent(fw.wallets["w1"], 500),
		func(context.Context) epins.Result { return result(epins.OutcomeUncertain) },
		func(context.Context) epins.Result {
			rechecked = true
			return result(epins.OutcomeSuccess)
		})

	require.NoError(t, err)
	require.True(t, rechecked)
	require.Equal(t, models.StatusSuccess, st.Txn.Status)
	require.Equal(t, float64(3500), fw.wallets["w1"].Balance)
	require.Equal(t, 0, fw.refunds)
}

func TestSettleTransportFailureRefundsAfterUnresolvedRecheck(t *testing.T) {
	fw := newFakeWallets(4000)
	ft := newFakeTxns()
	s := newTestService(fw, ft)

	st, err := s.settle(context.Background(), testIntent(fw.wallets["w1"], 500),
		func(context.Context) epins.Result {
			r := result(epins.OutcomeUncertain)
			r.Transport = true
			r.Message = "dial tcp: i/o timeout"
			return r
		},
		func(context.Context) epins.Result { return result(epins.OutcomeUncertain) })

	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, st.Txn.Status)
	require.True(t, st.Refunded)
	require.Equal(t, float64(4000), fw.wallets["w1"].Balance)
}

func TestSettleAmbiguousStaysPendingAndHoldsFunds(t *testing.T) {
	fw := newFakeWallets(4000)
	ft := newFakeTxns()
	s := newTestService(fw, ft)

	st, err := s.settle(context.Background(), testIntent(fw.wallets["w1"], 500),
		func(context.Context) epins.Result { return result(epins.OutcomeUncertain) },
		func(context.Context) epins.Result { return result(epins.OutcomeUncertain) })

	require.NoError(t, err)
	require.True(t, st.Pending)
	require.Equal(t, models.StatusPending, st.Txn.Status)
	require.False(t, st.Refunded)
	require.Equal(t, float64(3500), fw.wallets["w1"].Balance)
}

func TestSettleInsufficientFundsCreatesNoTransaction(t *testing.T) {
	fw := newFakeWallets(200)
	ft := newFakeTxns()
	s := newTestService(fw, ft)

	_, err := s.settle(context.Background(), testIntent(fw.wallets["w1"], 500),
		func(context.Context) epins.Result { t.Fatal("attempt must not run"); return epins.Result{} },
		func(context.Context) epins.Result { t.Fatal("recheck must not run"); return epins.Result{} })

	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	require.Empty(t, ft.byID)
	require.Equal(t, float64(200), fw.wallets["w1"].Balance)
}

func TestSettleReferenceCollision(t *testing.T) {
	fw := newFakeWallets(4000)
	ft := newFakeTxns()
	s := newTestService(fw, ft)

	in := testIntent(fw.wallets["w1"], 500)
	_, err := s.settle(context.Background(), in,
		func(context.Context) epins.Result { return result(epins.OutcomeSuccess) },
		func(context.Context) epins.Result { return result(epins.OutcomeSuccess) })
	require.NoError(t, err)

	_, err = s.settle(context.Background(), in,
		func(context.Context) epins.Result { t.Fatal("attempt must not run on collision"); return epins.Result{} },
		func(context.Context) epins.Result { return epins.Result{} })
	require.ErrorIs(t, err, ErrReferenceCollision)
	require.Equal(t, float64(3500), fw.wallets["w1"].Balance)
}

func TestSettleSandboxSkipsWallet(t *testing.T) {
	fw := newFakeWallets(0)
	ft := newFakeTxns()
	s := newTestService(fw, ft)
	s.Sandbox = true

	st, err := s.settle(context.Background(), testIntent(fw.wallets["w1"], 500),
		func(context.Context) epins.Result { return result(epins.OutcomeSuccess) },
		func(context.Context) epins.Result { return epins.Result{} })

	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, st.Txn.Status)
	require.Equal(t, float64(0), fw.wallets["w1"].Balance)
	require.Equal(t, 0, fw.reserves)
	require.Equal(t, "sandbox", st.Txn.Meta["mode"])
}
