package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"kwickpay/aspfiy"
	"kwickpay/auth"
	"kwickpay/db"
	"kwickpay/epins"
	"kwickpay/live"
	"kwickpay/notify"
	"kwickpay/plans"
	"kwickpay/purchase"
	"kwickpay/ratelim"
	"kwickpay/rdx"
	"kwickpay/receipts"
	"kwickpay/routes"
	"kwickpay/txn"
	"kwickpay/wallet"
	"kwickpay/webhook"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s - %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idxCtx, idxCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := db.EnsureIndexes(idxCtx); err != nil {
		log.Fatalf("index creation failed: %v", err)
	}
	idxCancel()

	hub := live.NewHub()
	go hub.Run()

	notifier := notify.Multi{
		&notify.HubNotifier{Hub: hub},
		&notify.RedisNotifier{Conn: rdx.Conn, Channel: "kwickpay:events"},
	}

	epinsClient := epins.NewClient(epins.ConfigFromEnv())
	bankClient := aspfiy.NewClientFromEnv()

	wallets := wallet.NewMongo()
	txns := txn.NewMongo()

	purchases := purchase.NewService(epinsClient, wallets, txns, notifier)
	if purchases.Sandbox {
		log.Println("[epins] running in sandbox mode; wallet deductions disabled")
	}

	planSync := plans.NewSyncer(epinsClient)
	planSync.StartDailySync(ctx)

	deps := routes.Deps{
		RateLimiter: ratelim.NewRateLimiter(10, 20),
		Auth:        auth.NewHandler(wallets, bankClient),
		Wallets:     &wallet.Handlers{Store: wallets},
		Purchases:   purchases,
		Billing:     webhook.NewBillingReconciler(wallets, txns, notifier),
		Funding:     webhook.NewFundingReconciler(wallets, txns, os.Getenv("ASPFIY_SECRET_KEY"), notifier),
		Plans:       planSync,
		Receipts:    receipts.NewPrinter(txns),
		Hub:         hub,
	}

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, deps)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "x-wiaxy-signature"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		hub.Stop()
	})

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := server.Shutdown(shutCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}

	if err := db.Client.Disconnect(shutCtx); err != nil {
		log.Printf("Mongo disconnect: %v", err)
	}

	log.Println("Server stopped cleanly")
}
