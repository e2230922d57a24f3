package webhook

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"kwickpay/models"
)

const fundingSecret = "test-secret"

func fundingFixture() (*FundingReconciler, *memWallets, *memTxns) {
	wallets := &memWallets{wallets: []*models.Wallet{{
		ID: "w1", UserID: "u1", Balance: 1000, Currency: "NGN",
		ReservedAccount: &models.ReservedAccount{
			AccountNumber:     "0123456789",
			MerchantReference: "KWP111111BBBB",
		},
	}}}
	txns := &memTxns{}
	return NewFundingReconciler(wallets, txns, fundingSecret, nil), wallets, txns
}

func postFunding(f *FundingReconciler, body string, sign bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/wallet/webhook/aspfiy", bytes.NewBufferString(body))
	if sign {
		sum := md5.Sum([]byte(fundingSecret))
		req.Header.Set("x-wiaxy-signature", hex.EncodeToString(sum[:]))
	}
	rec := httptest.NewRecorder()
	f.Handle(rec, req, nil)
	return rec
}

const paymentBody = `{
	"event": "PAYMENT_NOTIFICATION",
	"data": {
		"reference": "PAY001",
		"merchant_reference": "KWP111111BBBB",
		"wiaxy_ref": "WX001",
		"amount": "5000.00",
		"account_number": "0123456789"
	}
}`

func TestFundingWebhookCreditsWallet(t *testing.T) {
	f, wallets, txns := fundingFixture()

	rec := postFunding(f, paymentBody, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(6000), wallets.wallets[0].Balance)
	require.Len(t, txns.records, 1)
	require.Equal(t, models.TypeCredit, txns.records[0].Type)
	require.Equal(t, models.StatusSuccess, txns.records[0].Status)
	require.Equal(t, "WX001", txns.records[0].Meta["wiaxy_ref"])
	require.NotNil(t, txns.records[0].Meta["webhook"])
}

func TestFundingWebhookRequiresAllIdentifiers(t *testing.T) {
	f, wallets, txns := fundingFixture()

	bodies := map[string]string{
		"missing wiaxy_ref":          `{"event":"PAYMENT_NOTIFICATION","data":{"reference":"PAY010","merchant_reference":"KWP111111BBBB","amount":250}}`,
		"missing reference":          `{"event":"PAYMENT_NOTIFICATION","data":{"merchant_reference":"KWP111111BBBB","wiaxy_ref":"WX010","amount":250}}`,
		"missing merchant_reference": `{"event":"PAYMENT_NOTIFICATION","data":{"reference":"PAY010","wiaxy_ref":"WX010","amount":250}}`,
	}
	for name, body := range bodies {
		rec := postFunding(f, body, true)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
		require.Equal(t, float64(1000), wallets.wallets[0].Balance, name)
		require.Empty(t, txns.records, name)
	}
}

func TestFundingWebhookDuplicateCreditsOnce(t *testing.T) {
	f, wallets, txns := fundingFixture()

	postFunding(f, paymentBody, true)
	rec := postFunding(f, paymentBody, true)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(6000), wallets.wallets[0].Balance)
	require.Len(t, txns.records, 1)
	require.Equal(t, 1, wallets.credits)
}

func TestFundingWebhookRejectsBadSignature(t *testing.T) {
	f, wallets, _ := fundingFixture()

	rec := postFunding(f, paymentBody, false)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, float64(1000), wallets.wallets[0].Balance)

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/webhook/aspfiy", bytes.NewBufferString(paymentBody))
	req.Header.Set("x-wiaxy-signature", "deadbeef")
	rec = httptest.NewRecorder()
	f.Handle(rec, req, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFundingWebhookUnknownMerchantReference(t *testing.T) {
	f, _, _ := fundingFixture()

	body := `{"event":"PAYMENT_NOTIFICATION","data":{"reference":"PAY002","merchant_reference":"UNKNOWN","wiaxy_ref":"WX002","amount":100}}`
	rec := postFunding(f, body, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFundingWebhookInvalidAmount(t *testing.T) {
	f, wallets, _ := fundingFixture()

	body := `{"event":"PAYMENT_NOTIFICATION","data":{"reference":"PAY003","merchant_reference":"KWP111111BBBB","wiaxy_ref":"WX003","amount":"not-a-number"}}`
	rec := postFunding(f, body, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, float64(1000), wallets.wallets[0].Balance)
}

func TestFundingWebhookIgnoresUnknownEvent(t *testing.T) {
	f, wallets, txns := fundingFixture()

	body := `{"event":"KYC_NOTIFICATION","data":{"reference":"X"}}`
	rec := postFunding(f, body, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1000), wallets.wallets[0].Balance)
	require.Empty(t, txns.records)
}

func TestFundingWebhookDisbursementStatus(t *testing.T) {
	f, _, txns := fundingFixture()
	txns.records = append(txns.records, &models.Transaction{
		ID: "d1", UserID: "u1", Reference: "DSB001",
		Type: models.TypeDebit, Status: models.StatusPending,
		Meta: models.Meta{"merchant_reference": "KWP111111BBBB", "wiaxy_ref": "WX010"},
	})

	body := `{"event":"DISBURSEMENT_NOTIFICATION","data":{"reference":"DSB001","merchant_reference":"KWP111111BBBB","wiaxy_ref":"WX010","status":"successful"}}`
	rec := postFunding(f, body, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusSuccess, txns.records[0].Status)

	body = `{"event":"DISBURSEMENT_NOTIFICATION","data":{"reference":"MISSING","merchant_reference":"x","wiaxy_ref":"y","status":"failed"}}`
	rec = postFunding(f, body, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
