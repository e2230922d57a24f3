package purchase

import (
	"context"
	"errors"
	"net/http"

	"kwickpay/epins"
	"kwickpay/models"
	"kwickpay/notify"
	"kwickpay/txn"
	"kwickpay/utils"
	"kwickpay/wallet"
)

// Provider is the billing aggregator tag stamped into transaction meta and
// used by the billing webhook to correlate notifications.
const Provider = "epins"

var ErrReferenceCollision = errors.New("reference collision, try again")

// AttemptFunc issues one purchase call against the aggregator.
type AttemptFunc func(ctx context.Context) epins.Result

// RecheckFunc issues the single follow-up status query for an uncertain
// attempt.
type RecheckFunc func(ctx context.Context) epins.Result

// Service runs the purchase reconciliation flow for all four purchase types.
// One instance serves the whole process; per-type handlers build the typed
// gateway calls and hand them to settle.
type Service struct {
	Wallets wallet.Store
	Txns    txn.Store
	Client  *epins.Client
	Notify  notify.Notifier

	// Sandbox is resolved once at construction. In sandbox the aggregator's
	// simulation environment is used and wallet deductions are skipped;
	// transactions still run the full lifecycle.
	Sandbox bool
}

func NewService(client *epins.Client, wallets wallet.Store, txns txn.Store, n notify.Notifier) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	return &Service{
		Wallets: wallets,
		Txns:    txns,
		Client:  client,
		Notify:  n,
		Sandbox: client.Mode() == epins.ModeSandbox,
	}
}

// resolveWallet loads the purchase owner's wallet. When no user is identified
// and the purchase type allows it, the company wallet pays.
func (s *Service) resolveWallet(ctx context.Context, userID string, companyFallback bool) (*models.Wallet, error) {
	if userID == "" && companyFallback {
		return s.Wallets.CompanyWallet(ctx)
	}
	if userID == "" {
		return nil, wallet.ErrNotFound
	}
	return s.Wallets.ByUserID(ctx, userID)
}

func (s *Service) publish(ctx context.Context, in intent, status, message string) {
	s.Notify.Publish(ctx, models.TxnEvent{
		Type:    in.Kind,
		Status:  status,
		Ref:     in.Reference,
		UserID:  in.UserID,
		Amount:  in.Amount,
		Message: message,
	})
}

// respond translates a settlement (or a pre-attempt error) into the HTTP
// envelope: success flag, human-readable message, the transaction record and
// the provider's raw payload for operator diagnosis.
func (s *Service) respond(w http.ResponseWriter, st *settlement, err error, okMsg, failMsg string) {
	switch {
	case err == nil:
	case errors.Is(err, wallet.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Wallet not found")
		return
	case errors.Is(err, wallet.ErrInsufficientFunds):
		utils.RespondWithError(w, http.StatusBadRequest, "Insufficient wallet balance")
		return
	case errors.Is(err, ErrReferenceCollision):
		utils.RespondWithError(w, http.StatusConflict, "Reference collision, try again")
		return
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Unexpected error processing purchase")
		return
	}

	switch {
	case st.Pending:
		utils.RespondWithJSON(w, http.StatusAccepted, utils.M{
			"success":          false,
			"message":          "Transaction is pending. We will update when the provider confirms.",
			"transaction":      st.Txn,
			"providerResponse": st.Result.Raw,
		})
	case st.Txn.Status == models.StatusSuccess:
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success":          true,
			"message":          okMsg,
			"sandbox":          s.Sandbox,
			"transaction":      st.Txn,
			"providerResponse": st.Result.Raw,
		})
	default:
		msg := st.Result.Message
		if msg == "" {
			msg = failMsg
		}
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{
			"success":          false,
			"message":          msg,
			"transaction":      st.Txn,
			"providerResponse": st.Result.Raw,
		})
	}
}
