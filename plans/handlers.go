package plans

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"kwickpay/models"
	"kwickpay/rdx"
	"kwickpay/utils"
)

// ListDataPlans serves the cached data plan catalog, optionally filtered by
// network name or id.
func (s *Syncer) ListDataPlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	network := strings.ToLower(r.URL.Query().Get("network"))

	cacheKey := "plans:data"
	if network == "" {
		if cached, err := rdx.RdxGet(cacheKey); err == nil && cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	filter := bson.M{"available": true}
	if network != "" {
		filter["$or"] = []bson.M{{"network": network}, {"network_id": network}}
	}

	cur, err := s.DataCol.Find(r.Context(), filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load data plans")
		return
	}
	defer cur.Close(r.Context())

	var plans []models.DataPlan
	if err := cur.All(r.Context(), &plans); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load data plans")
		return
	}

	resp := utils.M{"success": true, "plans": plans}
	if network == "" {
		if buf, err := json.Marshal(resp); err == nil {
			_ = rdx.RdxSet(cacheKey, string(buf), s.CacheTTL)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ListCablePlans serves the TV packages, optionally filtered to one service
// (dstv, gotv, startimes).
func (s *Syncer) ListCablePlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	service := strings.ToLower(r.URL.Query().Get("service"))

	cacheKey := "plans:cable:" + service
	if cached, err := rdx.RdxGet(cacheKey); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(cached))
		return
	}

	filter := bson.M{"active": true}
	if service != "" {
		filter["service"] = service
	}

	cur, err := s.CableCol.Find(r.Context(), filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load cable plans")
		return
	}
	defer cur.Close(r.Context())

	var plans []models.CablePlan
	if err := cur.All(r.Context(), &plans); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load cable plans")
		return
	}

	resp := utils.M{"success": true, "plans": plans}
	if buf, err := json.Marshal(resp); err == nil {
		_ = rdx.RdxSet(cacheKey, string(buf), s.CacheTTL)
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// RefreshDataPlans triggers an immediate data catalog resync. Admin only.
func (s *Syncer) RefreshDataPlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n, err := s.SyncDataPlans(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Data plan sync failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "synced": n})
}

// RefreshCablePlans triggers an immediate cable catalog resync. Admin only.
func (s *Syncer) RefreshCablePlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n, err := s.SyncCablePlans(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Cable plan sync failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "synced": n})
}
