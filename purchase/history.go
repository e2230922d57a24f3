package purchase

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"kwickpay/txn"
	"kwickpay/utils"
)

// ListTransactions returns the caller's transaction history, newest first.
func (s *Service) ListTransactions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	skip, _ := strconv.ParseInt(r.URL.Query().Get("skip"), 10, 64)
	if skip < 0 {
		skip = 0
	}

	txns, err := s.Txns.ListByUser(r.Context(), userID, limit, skip)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load transactions")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "transactions": txns})
}

// GetTransaction returns one of the caller's transactions by reference.
func (s *Service) GetTransaction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	t, err := s.Txns.ByUserReference(r.Context(), userID, ps.ByName("reference"))
	if err != nil {
		if err == txn.ErrNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load transaction")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "transaction": t})
}
