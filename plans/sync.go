package plans

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kwickpay/db"
	"kwickpay/epins"
	"kwickpay/models"
	"kwickpay/rdx"
)

// cableServices are the catalog services synced into the cable plan table.
var cableServices = []string{"dstv", "gotv", "startimes"}

var networkNames = map[string]string{
	"01": "mtn",
	"02": "glo",
	"03": "9mobile",
	"04": "airtel",
}

// Syncer refreshes the local plan catalog from the aggregator. Prices drift,
// so purchases read from the local copy and a daily job keeps it current.
type Syncer struct {
	Client   *epins.Client
	DataCol  *mongo.Collection
	CableCol *mongo.Collection
	CacheTTL time.Duration
}

func NewSyncer(client *epins.Client) *Syncer {
	return &Syncer{
		Client:   client,
		DataCol:  db.DataPlanCollection,
		CableCol: db.CablePlanCollection,
		CacheTTL: 10 * time.Minute,
	}
}

func pickString(item map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := item[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func pickPrice(item map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		switch v := item[k].(type) {
		case float64:
			if v > 0 {
				return v
			}
		case string:
			if p, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil && p > 0 {
				return p
			}
		}
	}
	return 0
}

// SyncDataPlans pulls the data catalog and upserts it keyed on plan code.
func (s *Syncer) SyncDataPlans(ctx context.Context) (int, error) {
	items, err := s.Client.Variations(ctx, "data")
	if err != nil {
		return 0, err
	}

	n := 0
	now := time.Now()
	for _, item := range items {
		code := pickString(item, "vcode", "variation_code", "plan_code", "code")
		name := pickString(item, "name", "plan", "description")
		if code == "" || name == "" {
			continue
		}
		networkID := pickString(item, "networkId", "network_id", "network")
		network := networkNames[networkID]
		if network == "" {
			network = strings.ToLower(networkID)
		}

		plan := models.DataPlan{
			NetworkID: networkID,
			Network:   network,
			PlanCode:  code,
			Name:      name,
			Price:     pickPrice(item, "price", "amount", "variation_amount"),
			Validity:  pickString(item, "validity", "duration"),
			DataType:  pickString(item, "datatype", "type"),
			Available: true,
			UpdatedAt: now,
		}
		_, err := s.DataCol.UpdateOne(ctx,
			bson.M{"network_id": plan.NetworkID, "plan_code": plan.PlanCode},
			bson.M{"$set": plan, "$setOnInsert": bson.M{"_id": plan.NetworkID + "-" + plan.PlanCode}},
			options.Update().SetUpsert(true))
		if err != nil {
			return n, err
		}
		n++
	}
	_ = rdx.RdxDel("plans:data")
	return n, nil
}

// SyncCablePlans pulls each TV service catalog and upserts it.
func (s *Syncer) SyncCablePlans(ctx context.Context) (int, error) {
	n := 0
	now := time.Now()
	for _, service := range cableServices {
		items, err := s.Client.Variations(ctx, service)
		if err != nil {
			return n, fmt.Errorf("sync %s: %w", service, err)
		}
		for _, item := range items {
			code := pickString(item, "vcode", "variation_code", "plan_code", "code")
			name := pickString(item, "name", "package", "description")
			if code == "" || name == "" {
				continue
			}
			plan := models.CablePlan{
				Service:   service,
				PlanCode:  code,
				Name:      name,
				Price:     pickPrice(item, "price", "amount", "variation_amount"),
				Active:    true,
				UpdatedAt: now,
			}
			_, err := s.CableCol.UpdateOne(ctx,
				bson.M{"service": service, "plan_code": code},
				bson.M{"$set": plan, "$setOnInsert": bson.M{"_id": service + "-" + code}},
				options.Update().SetUpsert(true))
			if err != nil {
				return n, err
			}
			n++
		}
		_ = rdx.RdxDel("plans:cable:" + service)
	}
	// Unfiltered listing cache.
	_ = rdx.RdxDel("plans:cable:")
	return n, nil
}

// StartDailySync refreshes both catalogs once at startup and then every 24h
// until ctx is cancelled.
func (s *Syncer) StartDailySync(ctx context.Context) {
	sync := func() {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if n, err := s.SyncDataPlans(runCtx); err != nil {
			log.Printf("[plans] data sync failed: %v", err)
		} else {
			log.Printf("[plans] synced %d data plans", n)
		}
		if n, err := s.SyncCablePlans(runCtx); err != nil {
			log.Printf("[plans] cable sync failed: %v", err)
		} else {
			log.Printf("[plans] synced %d cable plans", n)
		}
	}

	go func() {
		sync()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sync()
			}
		}
	}()
}
