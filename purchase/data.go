package purchase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"kwickpay/epins"
	"kwickpay/utils"
)

// networkIDs maps common network names to the aggregator's numeric IDs.
var networkIDs = map[string]string{
	"mtn":      "01",
	"glo":      "02",
	"9mobile":  "03",
	"etisalat": "03",
	"airtel":   "04",
}

// dataBody accepts both the aggregator-style field names and the friendlier
// aliases mobile clients send.
type dataBody struct {
	UserID       string  `json:"userId"`
	NetworkID    string  `json:"networkId"`
	MobileNumber string  `json:"MobileNumber"`
	DataPlan     string  `json:"DataPlan"`
	Network      string  `json:"network"`
	Phone        string  `json:"phone"`
	PlanCode     string  `json:"planCode"`
	Amount       float64 `json:"amount"`
	Ref          string  `json:"ref"`
}

func (b *dataBody) normalize() (networkID, phone, plan string) {
	networkID = b.NetworkID
	if networkID == "" {
		networkID = networkIDs[strings.ToLower(b.Network)]
	}
	phone = b.MobileNumber
	if phone == "" {
		phone = b.Phone
	}
	plan = b.DataPlan
	if plan == "" {
		plan = b.PlanCode
	}
	return
}

// PurchaseData buys a data bundle. The plan price must be supplied by the
// caller (amount); the plan catalog endpoint exposes current prices.
func (s *Service) PurchaseData(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body dataBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	networkID, phone, plan := body.normalize()
	if networkID == "" || phone == "" || plan == "" || body.Amount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: network, phone, plan, or amount")
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
		ref = utils.GenerateReference("DAT")
	}

	in := intent{
		Kind:        "data",
		Service:     "data",
		Wallet:      wlt,
		UserID:      wlt.UserID,
		Amount:      body.Amount,
		Reference:   ref,
		Description: "Data bundle " + plan + " for " + phone,
	}

	gw := s.Client.Data()
	st, err := s.settle(r.Context(), in,
		func(ctx context.Context) epins.Result {
			return gw.Attempt(ctx, epins.DataRequest{
				NetworkID:    networkID,
				MobileNumber: phone,
				DataPlan:     plan,
				Ref:          ref,
			})
		},
		func(ctx context.Context) epins.Result {
			return gw.RecheckStatus(ctx, ref)
		})
	s.respond(w, st, err, "Data purchase successful", "Data purchase failed")
}
