package webhook

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"kwickpay/models"
	"kwickpay/notify"
	"kwickpay/txn"
	"kwickpay/utils"
	"kwickpay/wallet"
)

const (
	eventPayment      = "PAYMENT_NOTIFICATION"
	eventDisbursement = "DISBURSEMENT_NOTIFICATION"
)

// FundingReconciler credits wallets from bank-transfer notifications sent by
// the virtual-account provider. Deliveries are verified against the shared
// secret and deduplicated on (reference, merchant_reference, wiaxy_ref).
type FundingReconciler struct {
	Wallets wallet.Store
	Txns    txn.Store
	Secret  string
	Notify  notify.Notifier
}

func NewFundingReconciler(wallets wallet.Store, txns txn.Store, secret string, n notify.Notifier) *FundingReconciler {
	if n == nil {
		n = notify.Nop{}
	}
	return &FundingReconciler{Wallets: wallets, Txns: txns, Secret: secret, Notify: n}
}

type fundingEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference         string      `json:"reference"`
		MerchantReference string      `json:"merchant_reference"`
		WiaxyRef          string      `json:"wiaxy_ref"`
		Amount            interface{} `json:"amount"`
		AccountNumber     string      `json:"account_number"`
		Status            string      `json:"status"`
	} `json:"data"`
}

// verifySignature checks the x-wiaxy-signature header. The provider signs by
// hex MD5 of the merchant secret, not of the request body.
func (f *FundingReconciler) verifySignature(r *http.Request) bool {
	if f.Secret == "" {
		log.Printf("[funding] ASPFIY_SECRET_KEY not set, skipping signature verification")
		return true
	}
	got := r.Header.Get("x-wiaxy-signature")
	if got == "" {
		return false
	}
	sum := md5.Sum([]byte(f.Secret))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func parseAmount(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, n > 0
	case string:
		amt, err := strconv.ParseFloat(n, 64)
		return amt, err == nil && amt > 0
	default:
		return 0, false
	}
}

// Handle processes one funding notification. Unknown event types are
// acknowledged so the provider stops retrying them.
func (f *FundingReconciler) Handle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !f.verifySignature(r) {
		utils.RespondWithError(w, http.StatusForbidden, "Invalid webhook signature")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Could not read webhook body")
		return
	}

	var ev fundingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	// Decoded copy of the delivery, kept on the record for audit.
	var payload map[string]interface{}
	_ = json.Unmarshal(body, &payload)

	switch ev.Event {
	case eventPayment:
		f.handlePayment(w, r, ev, payload)
	case eventDisbursement:
		f.handleDisbursement(w, r, ev)
	default:
		log.Printf("[funding] ignoring event %q", ev.Event)
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Event ignored"})
	}
}

func (f *FundingReconciler) handlePayment(w http.ResponseWriter, r *http.Request, ev fundingEvent, payload map[string]interface{}) {
	d := ev.Data
	// All three correlating identifiers are required: they form the
	// duplicate-delivery guard, and an empty member would weaken it.
	if d.Reference == "" || d.MerchantReference == "" || d.WiaxyRef == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Notification missing reference, merchant_reference or wiaxy_ref")
		return
	}
	amount, ok := parseAmount(d.Amount)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid notification amount")
		return
	}

	wlt, err := f.Wallets.ByMerchantReference(r.Context(), d.MerchantReference)
	if err != nil {
		if err == wallet.ErrNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "No wallet bound to merchant reference")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load wallet")
		return
	}

	t := &models.Transaction{
		ID:          utils.GetUUID(),
		WalletID:    wlt.ID,
		UserID:      wlt.UserID,
		Type:        models.TypeCredit,
		Amount:      amount,
		Reference:   d.Reference,
		Description: "Wallet funding via bank transfer",
		Status:      models.StatusSuccess,
		Meta: models.Meta{
			"provider":           "aspfiy",
			"merchant_reference": d.MerchantReference,
			"wiaxy_ref":          d.WiaxyRef,
			"account_number":     d.AccountNumber,
			"webhook":            payload,
		},
	}
	if err := f.Txns.Create(r.Context(), t); err != nil {
		if err == txn.ErrDuplicate {
			// Redelivery of a credit we already applied.
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Notification already processed"})
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not record funding transaction")
		return
	}

	entry := models.WalletEntry{
		Type:        models.TypeCredit,
		Amount:      amount,
		Reference:   d.Reference,
		Description: t.Description,
		Status:      models.StatusSuccess,
	}
	if err := f.Wallets.Credit(r.Context(), wlt.ID, amount, entry); err != nil {
		log.Printf("[funding] credit error for %s: %v", d.Reference, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not credit wallet")
		return
	}

	balance, _ := f.Wallets.Balance(r.Context(), wlt.ID)
	f.Notify.Publish(r.Context(), models.TxnEvent{
		Type:    "funding",
		Status:  models.StatusSuccess,
		Ref:     d.Reference,
		UserID:  wlt.UserID,
		Amount:  amount,
		Balance: balance,
		Message: "Wallet funded successfully",
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Wallet credited"})
}

func (f *FundingReconciler) handleDisbursement(w http.ResponseWriter, r *http.Request, ev fundingEvent) {
	d := ev.Data
	t, err := f.Txns.ByFundingKeys(r.Context(), d.Reference, d.MerchantReference, d.WiaxyRef)
	if err != nil {
		if err == txn.ErrNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Unknown disbursement")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load transaction")
		return
	}

	switch {
	case successStatuses[d.Status]:
		_ = f.Txns.SetStatus(r.Context(), t.ID, models.StatusSuccess, models.Meta{"disbursement_status": d.Status})
	case failureStatuses[d.Status]:
		_ = f.Txns.SetStatus(r.Context(), t.ID, models.StatusFailed, models.Meta{"disbursement_status": d.Status})
	default:
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Status not recognized, no change"})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Disbursement status updated"})
}
