package routes

import (
	"github.com/julienschmidt/httprouter"

	"kwickpay/middleware"
)

// AddPurchaseRoutes wires the four purchase types plus the pre-purchase
// validation endpoints. Airtime allows unauthenticated internal calls which
// settle from the company wallet.
func AddPurchaseRoutes(router *httprouter.Router, d Deps) {
	authed := middleware.Chain(
		d.RateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("user", "admin"),
	)

	router.POST("/api/airtime/purchase",
		middleware.Chain(
			d.RateLimiter.Limit,
			middleware.OptionalAuth,
		)(d.Purchases.PurchaseAirtime))

	router.POST("/api/data/purchase", authed(d.Purchases.PurchaseData))

	router.POST("/api/cable/verify", authed(d.Purchases.VerifySmartCard))
	router.POST("/api/cable/purchase", authed(d.Purchases.PurchaseCable))

	router.POST("/api/electricity/validate", authed(d.Purchases.ValidateMeter))
	router.POST("/api/electricity/purchase", authed(d.Purchases.PurchaseElectricity))

	router.GET("/api/airtime/balance",
		middleware.Chain(
			d.RateLimiter.Limit,
			middleware.Authenticate,
			middleware.RequireRoles("admin"),
		)(d.Purchases.FloatBalance))
}

// AddTransactionRoutes wires transaction history and receipts.
func AddTransactionRoutes(router *httprouter.Router, d Deps) {
	authed := middleware.Chain(
		d.RateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("user", "admin"),
	)

	router.GET("/api/wallet/transactions", authed(d.Purchases.ListTransactions))
	router.GET("/api/transactions/:reference", authed(d.Purchases.GetTransaction))
	router.GET("/api/transactions/:reference/receipt", authed(d.Receipts.Print))
}
