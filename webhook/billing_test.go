package webhook

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"kwickpay/models"
	"kwickpay/purchase"
)

func billingFixture() (*BillingReconciler, *memWallets, *memTxns) {
	// A wallet that already paid 500 for a purchase now pending with the
	// provider.
	wallets := &memWallets{wallets: []*models.Wallet{{
		ID: "w1", UserID: "u1", Balance: 3500, Currency: "NGN",
		Transactions: []models.WalletEntry{{
			Type: models.TypeDebit, Amount: 500, Reference: "AIR111111AAAA", Status: models.StatusPending,
		}},
	}}}
	txns := &memTxns{records: []*models.Transaction{{
		ID: "t1", WalletID: "w1", UserID: "u1",
		Type: models.TypeDebit, Amount: 500,
		Reference: "AIR111111AAAA", Status: models.StatusPending,
		Meta: models.Meta{"provider": purchase.Provider, "providerService": "airtime"},
	}}}
	return NewBillingReconciler(wallets, txns, nil), wallets, txns
}

func postBilling(b *BillingReconciler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/epins", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	b.Handle(rec, req, nil)
	return rec
}

func TestBillingWebhookFinalizesSuccess(t *testing.T) {
	b, wallets, txns := billingFixture()

	rec := postBilling(b, `{"reference":"AIR111111AAAA","status":"successful"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusSuccess, txns.records[0].Status)
	require.Equal(t, models.StatusSuccess, wallets.wallets[0].Transactions[0].Status)
	require.Equal(t, float64(3500), wallets.wallets[0].Balance)
	require.Equal(t, 0, wallets.refunds)
}

func TestBillingWebhookDeclineRefundsOnce(t *testing.T) {
	b, wallets, txns := billingFixture()

	rec := postBilling(b, `{"trxref":"AIR111111AAAA","status":"declined"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusFailed, txns.records[0].Status)
	require.True(t, txns.records[0].Refunded)
	require.Equal(t, float64(4000), wallets.wallets[0].Balance)
	require.Equal(t, 1, wallets.refunds)

	// Redelivery of the same notification must not refund again.
	rec = postBilling(b, `{"trxref":"AIR111111AAAA","status":"declined"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(4000), wallets.wallets[0].Balance)
	require.Equal(t, 1, wallets.refunds)
}

func TestBillingWebhookReplayAfterSuccessIsNoop(t *testing.T) {
	b, wallets, txns := billingFixture()

	postBilling(b, `{"reference":"AIR111111AAAA","status":"paid"}`)
	require.Equal(t, models.StatusSuccess, txns.records[0].Status)

	// A contradictory late delivery is ignored once the record is terminal.
	rec := postBilling(b, `{"reference":"AIR111111AAAA","status":"failed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusSuccess, txns.records[0].Status)
	require.Equal(t, float64(3500), wallets.wallets[0].Balance)
	require.Equal(t, 0, wallets.refunds)
}

func TestBillingWebhookUnrecognizedStatusFailsClosed(t *testing.T) {
	b, wallets, txns := billingFixture()

	rec := postBilling(b, `{"reference":"AIR111111AAAA","status":"processing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusFailed, txns.records[0].Status)
	require.Equal(t, float64(4000), wallets.wallets[0].Balance)
	require.Equal(t, 1, wallets.refunds)
}

func TestBillingWebhookRefundRunsOnlyForFlagClaimer(t *testing.T) {
	b, wallets, txns := billingFixture()

	// Another worker already claimed the refunded flag for this record; a
	// late failure delivery must not move money again.
	txns.records[0].Refunded = true

	rec := postBilling(b, `{"reference":"AIR111111AAAA","status":"declined"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusFailed, txns.records[0].Status)
	require.Equal(t, float64(3500), wallets.wallets[0].Balance)
	require.Equal(t, 0, wallets.refunds)
}

func TestBillingWebhookUnknownReference(t *testing.T) {
	b, _, _ := billingFixture()

	rec := postBilling(b, `{"reference":"NOPE","status":"successful"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillingWebhookMissingReference(t *testing.T) {
	b, _, _ := billingFixture()

	rec := postBilling(b, `{"status":"successful"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillingWebhookReferenceAliases(t *testing.T) {
	for _, alias := range []string{"reference", "ref", "txn_ref", "trxref", "transactionReference"} {
		b, _, txns := billingFixture()
		rec := postBilling(b, `{"`+alias+`":"AIR111111AAAA","status":"completed"}`)
		require.Equal(t, http.StatusOK, rec.Code, alias)
		require.Equal(t, models.StatusSuccess, txns.records[0].Status, alias)
	}
}
