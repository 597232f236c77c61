package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/peermart/peermart/internal/alerts"
	"github.com/peermart/peermart/internal/auth"
	"github.com/peermart/peermart/internal/catalog"
	"github.com/peermart/peermart/internal/config"
	"github.com/peermart/peermart/internal/escrow"
	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/marketplace"
	mware "github.com/peermart/peermart/internal/middleware"
	"github.com/peermart/peermart/internal/query"
	"github.com/peermart/peermart/internal/wallet"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	// Pick the ledger backend
	var store ledger.Store
	var pg *ledger.PostgresStore
	if cfg.PostgresDSN != "" {
		var err error
		pg, err = ledger.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("unable to connect to database: %v", err)
		}
		defer pg.Close()
		store = pg
		log.Println("connected to Postgres ledger")
	} else {
		store = ledger.NewMemoryStore()
		log.Println("POSTGRES_DSN not set; using in-memory ledger")
	}

	// The arbiter identity is fixed at startup and injected into the engine.
	arbiterID, err := auth.EnsureArbiter(ctx, store, cfg.ArbiterName, cfg.ArbiterEmail, cfg.ArbiterPassword)
	if err != nil {
		log.Fatalf("arbiter bootstrap failed: %v", err)
	}

	alerts.Init(cfg.RedisAddr, store)

	engine := escrow.NewEngine(store, arbiterID)
	handlers := &marketplace.Handlers{
		Catalog: catalog.New(store),
		Engine:  engine,
		Views:   query.New(store),
		Store:   store,
	}
	authHandler := &auth.Handler{Store: store, Secret: []byte(cfg.JWTSecret)}
	walletHandler := &wallet.Handler{Store: store}
	notifHandler := &alerts.NotificationHandler{Store: store}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// Health and readiness
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "peermart"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if pg != nil {
			if err := pg.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)

	// Public discovery
	e.GET("/marketplace/products", handlers.GetAllProducts)
	e.GET("/marketplace/products/:id", handlers.GetProduct)

	// Authenticated routes
	g := e.Group("")
	g.Use(mware.JWT([]byte(cfg.JWTSecret)))

	g.GET("/auth/me", authHandler.Me)

	g.GET("/wallet/balance", walletHandler.Balance)
	g.POST("/wallet/topup", walletHandler.Topup)
	g.GET("/wallet/transactions", walletHandler.Transactions)

	g.POST("/marketplace/products", handlers.CreateListing)
	g.GET("/marketplace/products/me", handlers.GetMyListings)
	g.POST("/marketplace/products/:id/deactivate", handlers.DeactivateProduct)

	g.POST("/marketplace/orders", handlers.Purchase)
	g.POST("/marketplace/orders/:id/ship", handlers.Ship)
	g.POST("/marketplace/orders/:id/complete", handlers.Complete)
	g.POST("/marketplace/orders/:id/cancel", handlers.Cancel)
	g.POST("/marketplace/orders/:id/dispute", handlers.Dispute)
	g.GET("/marketplace/orders/me", handlers.GetMyOrders)
	g.GET("/marketplace/sales/me", handlers.GetMySales)
	g.GET("/marketplace/orders/:id", handlers.GetOrder)

	g.GET("/notifications", notifHandler.List)
	g.POST("/notifications/:id/read", notifHandler.MarkRead)

	// Arbiter routes
	admin := e.Group("/admin")
	admin.Use(mware.JWT([]byte(cfg.JWTSecret)))
	admin.Use(mware.ArbiterGuard)
	admin.GET("/orders", handlers.GetAllOrders)
	admin.POST("/orders/:id/resolve", handlers.ResolveDispute)
	admin.GET("/stats", handlers.Stats)

	log.Printf("peermart listening on %s (arbiter=%s)", cfg.HTTPAddr, arbiterID)
	if err := e.Start(cfg.HTTPAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
