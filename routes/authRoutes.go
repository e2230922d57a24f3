package routes

import (
	"github.com/julienschmidt/httprouter"

	"kwickpay/middleware"
)

// AddAuthRoutes wires registration and login.
func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/auth/register",
		middleware.Chain(d.RateLimiter.Limit)(d.Auth.Register))
	router.POST("/api/auth/login",
		middleware.Chain(d.RateLimiter.Limit)(d.Auth.Login))
}

// AddWalletRoutes wires the wallet read endpoints.
func AddWalletRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/wallet",
		middleware.Chain(
			d.RateLimiter.Limit,
			middleware.Authenticate,
			middleware.RequireRoles("user", "admin"),
		)(d.Wallets.GetWallet))

	router.GET("/api/wallet/balance",
		middleware.Chain(
			d.RateLimiter.Limit,
			middleware.Authenticate,
			middleware.RequireRoles("user", "admin"),
		)(d.Wallets.GetBalance))
}
