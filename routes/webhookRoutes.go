package routes

import (
	"github.com/julienschmidt/httprouter"

	"kwickpay/live"
	"kwickpay/middleware"
)

// AddWebhookRoutes wires the two inbound notification endpoints. Both are
// unauthenticated by design: billing notifications correlate by reference,
// funding notifications are signature-checked inside the handler. Neither is
// rate limited, since providers retry aggressively after a 429.
func AddWebhookRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/webhook/epins", d.Billing.Handle)
	router.POST("/api/wallet/webhook/aspfiy", d.Funding.Handle)
}

// AddPlanRoutes wires the plan catalog endpoints.
func AddPlanRoutes(router *httprouter.Router, d Deps) {
	admin := middleware.Chain(
		d.RateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("admin"),
	)

	router.GET("/api/data-plans",
		middleware.Chain(d.RateLimiter.Limit)(d.Plans.ListDataPlans))
	router.GET("/api/cable-plans",
		middleware.Chain(d.RateLimiter.Limit)(d.Plans.ListCablePlans))
	router.POST("/api/data-plans/sync", admin(d.Plans.RefreshDataPlans))
	router.POST("/api/cable-plans/sync", admin(d.Plans.RefreshCablePlans))
}

// AddLiveRoutes wires the per-user transaction event stream.
func AddLiveRoutes(router *httprouter.Router, d Deps) {
	router.GET("/ws/events/:userid", live.EventsHandler(d.Hub))
}
