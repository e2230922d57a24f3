package wallet

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"kwickpay/utils"
)

// Handlers exposes the wallet read endpoints.
type Handlers struct {
	Store Store
}

// GetWallet returns the caller's wallet, including the embedded entry log and
// the reserved funding account when one is bound.
func (h *Handlers) GetWallet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	wlt, err := h.Store.ByUserID(r.Context(), userID)
	if err != nil {
		if err == ErrNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Wallet not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load wallet")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "wallet": wlt})
}

// GetBalance returns just the current balance.
func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	wlt, err := h.Store.ByUserID(r.Context(), userID)
	if err != nil {
		if err == ErrNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Wallet not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load wallet")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":  true,
		"balance":  wlt.Balance,
		"currency": wlt.Currency,
	})
}
