package purchase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"kwickpay/epins"
	"kwickpay/utils"
)

type airtimeBody struct {
	UserID  string  `json:"userId"`
	Network string  `json:"network"`
	Phone   string  `json:"phone"`
	Amount  float64 `json:"amount"`
	Ref     string  `json:"ref"`
}

// PurchaseAirtime buys airtime for a phone number. Calls without an
// identified user are settled from the company wallet.
func (s *Service) PurchaseAirtime(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body airtimeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Network == "" || body.Phone == "" || body.Amount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: network, phone, or amount")
		return
	}

	userID := body.UserID
	if userID == "" {
		userID = utils.GetUserIDFromRequest(r)
	}

	wlt, err := s.resolveWallet(r.Context(), userID, true)
	if err != nil {
		s.respond(w, nil, err, "", "")
		return
	}

	ref := body.Ref
	if ref == "" {
		ref = utils.GenerateReference("AIR")
	}

	in := intent{
		Kind:        "airtime",
		Service:     "airtime",
		Wallet:      wlt,
		UserID:      wlt.UserID,
		Amount:      body.Amount,
		Reference:   ref,
		Description: "Airtime purchase for " + body.Phone,
	}

	gw := s.Client.Airtime()
	st, err := s.settle(r.Context(), in,
		func(ctx context.Context) epins.Result {
			return gw.Attempt(ctx, epins.AirtimeRequest{
				Network:   body.Network,
				Phone:     body.Phone,
				Amount:    body.Amount,
				Ref:       ref,
				RequestID: ref,
			})
		},
		func(ctx context.Context) epins.Result {
			return gw.RecheckStatus(ctx, ref)
		})
	s.respond(w, st, err, "Airtime purchase successful", "Airtime purchase failed")
}

// FloatBalance reports the aggregator-side float balance so operators can see
// purchasing headroom before it runs dry.
func (s *Service) FloatBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	raw, err := s.Client.FloatBalance(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Could not fetch provider balance")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "balance": raw})
}
