package routes

import (
	"github.com/julienschmidt/httprouter"

	"kwickpay/auth"
	"kwickpay/live"
	"kwickpay/plans"
	"kwickpay/purchase"
	"kwickpay/ratelim"
	"kwickpay/receipts"
	"kwickpay/wallet"
	"kwickpay/webhook"
)

// Deps carries the constructed services into route registration so handlers
// share one instance each.
type Deps struct {
	RateLimiter *ratelim.RateLimiter
	Auth        *auth.Handler
	Wallets     *wallet.Handlers
	Purchases   *purchase.Service
	Billing     *webhook.BillingReconciler
	Funding     *webhook.FundingReconciler
	Plans       *plans.Syncer
	Receipts    *receipts.Printer
	Hub         *live.Hub
}

// RoutesWrapper registers every route group on the router.
func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddAuthRoutes(router, d)
	AddWalletRoutes(router, d)
	AddPurchaseRoutes(router, d)
	AddTransactionRoutes(router, d)
	AddWebhookRoutes(router, d)
	AddPlanRoutes(router, d)
	AddLiveRoutes(router, d)
}
