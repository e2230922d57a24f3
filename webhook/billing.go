package webhook

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"kwickpay/models"
	"kwickpay/notify"
	"kwickpay/purchase"
	"kwickpay/txn"
	"kwickpay/utils"
	"kwickpay/wallet"
)

// referenceKeys are the field names under which billing notifications have
// been observed to carry our transaction reference.
var referenceKeys = []string{"reference", "ref", "txn_ref", "trxref", "transactionReference"}

// successStatuses and failureStatuses map the aggregator's webhook vocabulary
// onto our two terminal states. Anything outside both sets is treated as a
// failure: an unrecognized status must never hold the user's money.
var successStatuses = map[string]bool{
	"success":    true,
	"successful": true,
	"completed":  true,
	"paid":       true,
}

var failureStatuses = map[string]bool{
	"failed":    true,
	"error":     true,
	"declined":  true,
	"rejected":  true,
	"cancelled": true,
}

// BillingReconciler finalizes pending purchases from aggregator webhook
// notifications. It is the authoritative closer for transactions the
// synchronous flow left pending.
type BillingReconciler struct {
	Wallets wallet.Store
	Txns    txn.Store
	Notify  notify.Notifier
}

func NewBillingReconciler(wallets wallet.Store, txns txn.Store, n notify.Notifier) *BillingReconciler {
	if n == nil {
		n = notify.Nop{}
	}
	return &BillingReconciler{Wallets: wallets, Txns: txns, Notify: n}
}

func extractReference(payload map[string]interface{}) string {
	for _, k := range referenceKeys {
		if v, ok := payload[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func statusOf(payload map[string]interface{}) string {
	if v, ok := payload["status"].(string); ok {
		return v
	}
	if v, ok := payload["state"].(string); ok {
		return v
	}
	return ""
}

// Handle processes one billing webhook delivery. Replays of already-settled
// references acknowledge without touching the record, so the endpoint is
// safe against the aggregator's at-least-once delivery.
func (b *BillingReconciler) Handle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	ref := extractReference(payload)
	if ref == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Webhook payload carries no transaction reference")
		return
	}

	t, err := b.Txns.ByReference(r.Context(), ref, purchase.Provider)
	if err != nil {
		if err == txn.ErrNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Unknown transaction reference")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load transaction")
		return
	}

	if t.Terminal() {
		// Keep the late delivery for audit; no balance mutation.
		_ = b.Txns.SetStatus(r.Context(), t.ID, t.Status, models.Meta{"webhook": payload})
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Transaction already processed"})
		return
	}

	status := statusOf(payload)
	switch {
	case successStatuses[status]:
		_ = b.Txns.SetStatus(r.Context(), t.ID, models.StatusSuccess, models.Meta{"webhook": payload})
		_ = b.Wallets.SetEntryStatus(r.Context(), t.WalletID, t.Reference, models.StatusSuccess)
		b.publish(r, t, models.StatusSuccess, "Transaction confirmed by provider")
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Transaction finalized"})

	default:
		// Failure aliases and anything unrecognized both land here.
		if !failureStatuses[status] {
			log.Printf("[webhook] unrecognized status %q for %s, treating as failure", status, t.Reference)
		}
		// Sandbox purchases never held funds, so there is nothing to return.
		// Claiming the refunded flag first makes the refund single-shot even
		// under concurrent deliveries: only the claimer credits the wallet.
		mode, _ := t.Meta["mode"].(string)
		if mode != "sandbox" && b.Txns.MarkRefunded(r.Context(), t.ID, t.Amount) == nil {
			if _, err := b.Wallets.Refund(r.Context(), t.WalletID, t.Amount, t.Reference); err != nil {
				log.Printf("[webhook] refund error for %s: %v", t.Reference, err)
			}
		}
		_ = b.Txns.SetStatus(r.Context(), t.ID, models.StatusFailed, models.Meta{"webhook": payload})
		b.publish(r, t, models.StatusFailed, "Transaction declined by provider, wallet refunded")
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Transaction failed and refunded"})
	}
}

func (b *BillingReconciler) publish(r *http.Request, t *models.Transaction, status, message string) {
	kind, _ := t.Meta["providerService"].(string)
	b.Notify.Publish(r.Context(), models.TxnEvent{
		Type:    kind,
		Status:  status,
		Ref:     t.Reference,
		UserID:  t.UserID,
		Amount:  t.Amount,
		Message: message,
	})
}
