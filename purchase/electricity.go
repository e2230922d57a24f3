package purchase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"kwickpay/epins"
	"kwickpay/utils"
)

type electricityBody struct {
	UserID    string  `json:"userId"`
	Service   string  `json:"service"`
	AccountNo string  `json:"accountno"`
	Vcode     string  `json:"vcode"`
	Amount    float64 `json:"amount"`
	Ref       string  `json:"ref"`
}

// ValidateMeter checks a meter number with the disco before a token purchase.
func (s *Service) ValidateMeter(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Service string `json:"service"`
		Meter   string `json:"meter"`
		Vcode   string `json:"vcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Service == "" || body.Meter == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: service or meter")
		return
	}

	res := s.Client.Verify(r.Context(), epins.VerifyRequest{
		ServiceID:    body.Service,
		BillerNumber: body.Meter,
		Vcode:        body.Vcode,
	})
	if res.Outcome != epins.OutcomeSuccess {
		msg := res.Message
		if msg == "" {
			msg = "Meter validation failed"
		}
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": msg, "providerResponse": res.Raw})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "customer": res.Raw})
}

// PurchaseElectricity buys a prepaid token or settles a postpaid bill. The
// token, when the disco issues one, rides back in the provider response.
func (s *Service) PurchaseElectricity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body electricityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Service == "" || body.AccountNo == "" || body.Amount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: service, accountno, or amount")
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
		ref = utils.GenerateReference("ELE")
	}

	in := intent{
		Kind:        "electricity",
		Service:     body.Service,
		Wallet:      wlt,
		UserID:      wlt.UserID,
		Amount:      body.Amount,
		Reference:   ref,
		Description: "Electricity purchase " + body.Service + " for meter " + body.AccountNo,
		Meta:        map[string]interface{}{"meterNo": body.AccountNo},
	}

	gw := s.Client.Electricity()
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
	s.respond(w, st, err, "Electricity purchase successful", "Electricity purchase failed")
}
