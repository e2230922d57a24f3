package purchase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"kwickpay/epins"
	"kwickpay/utils"
)

type cableBody struct {
	UserID    string  `json:"userId"`
	Service   string  `json:"service"`
	AccountNo string  `json:"accountno"`
	Vcode     string  `json:"vcode"`
	Amount    float64 `json:"amount"`
	Ref       string  `json:"ref"`
}

// VerifySmartCard validates a decoder smartcard number against the biller
// before money moves.
func (s *Service) VerifySmartCard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Service   string `json:"service"`
		AccountNo string `json:"accountno"`
		Vcode     string `json:"vcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Service == "" || body.AccountNo == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: service or accountno")
		return
	}

	res := s.Client.Verify(r.Context(), epins.VerifyRequest{
		ServiceID:    body.Service,
		BillerNumber: body.AccountNo,
		Vcode:        body.Vcode,
	})
	if res.Outcome != epins.OutcomeSuccess {
		msg := res.Message
		if msg == "" {
			msg = "Smartcard verification failed"
		}
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": msg, "providerResponse": res.Raw})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "customer": res.Raw})
}

// PurchaseCable renews a TV decoder subscription. Cable settlements are the
// slowest of the four types, so a pending outcome here is routine rather
// than exceptional.
func (s *Service) PurchaseCable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body cableBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Service == "" || body.AccountNo == "" || body.Vcode == "" || body.Amount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: service, accountno, vcode, or amount")
		return
	}

	userID := body.UserID
	if userID == "" {
		userID = utils.GetUserIDFromRequest(r)
	}

	wlt, err := s.resolveWallet(r.Context(), userID, false)
	if err != nil {
		s.respond(w, nil, err, "", "")
		return
	}

	ref := body.Ref
	if ref == "" {
		ref = utils.GenerateReference("CAB")
	}

	in := intent{
		Kind:        "cable",
		Service:     body.Service,
		Wallet:      wlt,
		UserID:      wlt.UserID,
		Amount:      body.Amount,
		Reference:   ref,
		Description: "Cable subscription " + body.Service + " for " + body.AccountNo,
		Meta:        map[string]interface{}{"accountNo": body.AccountNo, "vcode": body.Vcode},
	}

	gw := s.Client.Cable()
	st, err := s.settle(r.Context(), in,
		func(ctx context.Context) epins.Result {
			return gw.Attempt(ctx, epins.BillerRequest{
				Service:   body.Service,
				AccountNo: body.AccountNo,
				Vcode:     body.Vcode,
				Amount:    body.Amount,
				Ref:       ref,
			})
		},
		func(ctx context.Context) epins.Result {
			return gw.RecheckStatus(ctx, ref)
		})
	s.respond(w, st, err, "Cable subscription successful", "Cable subscription failed")
}
