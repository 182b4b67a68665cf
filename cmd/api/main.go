package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/cart"
	"github.com/wodoame/smecs/internal/categories"
	"github.com/wodoame/smecs/internal/checkout"
	"github.com/wodoame/smecs/internal/config"
	"github.com/wodoame/smecs/internal/db"
	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/inventory"
	"github.com/wodoame/smecs/internal/logging"
	"github.com/wodoame/smecs/internal/mail"
	"github.com/wodoame/smecs/internal/metrics"
	"github.com/wodoame/smecs/internal/orders"
	"github.com/wodoame/smecs/internal/products"
	"github.com/wodoame/smecs/internal/ratelimit"
	"github.com/wodoame/smecs/internal/reconcile"
	"github.com/wodoame/smecs/internal/reviews"
	"github.com/wodoame/smecs/internal/session"
	"github.com/wodoame/smecs/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Client records
	var records store.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pool.Close()
		records = store.NewRepo(pool)
		log.Info("client records in postgres")
	} else {
		records = store.NewMemory()
		log.Warn("DATABASE_URL not set, client records are kept in memory")
	}

	api := backend.New(backend.Config{
		BaseURL:     cfg.BackendBaseURL,
		GraphQLPath: cfg.GraphQLPath,
		Timeout:     time.Duration(cfg.BackendTimeoutSec) * time.Second,
		Logger:      log.WithField("component", "backend"),
	})

	jwtMgr := auth.NewJWTManager(auth.JWTConfig{
		Issuer:  cfg.JWTIssuer,
		Secret:  cfg.DeviceTokenSecret,
		TTLDays: cfg.DeviceTokenTTLDays,
	})

	hub := session.NewHub()
	hub.OnDrop(func(ev session.Event) {
		log.WithField("device", ev.Device).Warn("session event dropped for a slow subscriber")
	})
	sessions := session.NewStore(records, hub, session.WithLogger(log.WithField("component", "session")))

	guest := cart.NewRepo(records)
	cartSvc := cart.NewService(guest, api, sessions, log.WithField("component", "cart"))

	reconciler := reconcile.New(guest, api, sessions, log.WithField("component", "reconcile"))
	go reconciler.Run(ctx)

	var sagaOpts []checkout.Option
	if cfg.MailEnabled() {
		sagaOpts = append(sagaOpts, checkout.WithMailer(mail.NewSMTPMailer(mail.SMTPConfig{
			Host:    cfg.SMTPHost,
			Port:    cfg.SMTPPort,
			User:    cfg.SMTPUser,
			Pass:    cfg.SMTPPass,
			From:    cfg.SMTPFrom,
			Timeout: 10 * time.Second,
		})))
	}
	saga := checkout.NewOrchestrator(api, log.WithField("component", "checkout"), sagaOpts...)

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	go limiter.Run(ctx, time.Minute)

	// Handlers
	authHandler := auth.NewHandler(auth.Dependencies{
		JWT:      jwtMgr,
		Accounts: api,
		Sessions: sessions,
		Resume: func(ctx context.Context, device string) (*domain.Session, auth.Merge, error) {
			sess, res, err := reconciler.Resume(ctx, device)
			return sess, auth.Merge{Merged: res.Merged, Lines: res.Lines, Err: res.Err}, err
		},
		AllowedOrigins: cfg.CORSOrigins,
		Log:            log.WithField("component", "auth"),
	})
	catHandler := categories.NewHandler(api, log)
	prodHandler := products.NewHandler(api, log)
	cartHandler := cart.NewHandler(cartSvc, log)
	checkoutHandler := checkout.NewHandler(saga, log)
	orderHandler := orders.NewHandler(api, log)
	reviewHandler := reviews.NewHandler(api, log)
	invHandler := inventory.NewHandler(inventory.NewManager(api, cfg.InventoryAPI), log)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(log), metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", auth.DeviceHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := r.Group("/api")

	// Public catalog routes (no device required)
	public := apiGroup.Group("")
	public.Use(limiter.Middleware())
	{
		public.POST("/device", authHandler.IssueDevice)
		public.GET("/categories", catHandler.ListPublic)
		prodHandler.Register(public)
		public.GET("/products/:id/reviews", reviewHandler.ByProduct)
	}

	// Every browser profile carries a device token from here on
	device := apiGroup.Group("")
	device.Use(auth.DeviceMiddleware(jwtMgr), limiter.Middleware())
	{
		device.POST("/auth/login", authHandler.Login)
		device.POST("/auth/register", authHandler.Register)
		device.POST("/auth/logout", authHandler.Logout)
		device.GET("/session", authHandler.Session)
		device.GET("/session/events", authHandler.Events)

		// guests have a cart too
		cartHandler.Register(device)
	}

	signedIn := device.Group("")
	signedIn.Use(auth.RequireSession(sessions, log))
	{
		signedIn.GET("/auth/verify", authHandler.Verify)

		checkoutHandler.Register(signedIn)

		signedIn.GET("/orders", orderHandler.History)
		signedIn.GET("/orders/:id", orderHandler.Get)
		signedIn.GET("/orders/:id/items", orderHandler.Lines)

		signedIn.POST("/reviews", reviewHandler.Create)
		signedIn.DELETE("/reviews/:id", reviewHandler.Delete)
	}

	adminOnly := signedIn.Group("/admin")
	adminOnly.Use(auth.RequireRole("admin"))
	{
		adminOnly.GET("/categories", catHandler.AdminList)
		adminOnly.POST("/categories", catHandler.AdminCreate)
		adminOnly.PUT("/categories/:id", catHandler.AdminUpdate)
		adminOnly.DELETE("/categories/:id", catHandler.AdminDelete)

		adminOnly.GET("/inventory", invHandler.List)
		adminOnly.GET("/inventory/:id", invHandler.Get)
		adminOnly.POST("/inventory", invHandler.Create)
		adminOnly.PUT("/inventory/:id", invHandler.Update)
		adminOnly.DELETE("/inventory/:id", invHandler.Delete)

		adminOnly.GET("/orders", orderHandler.AdminList)
		adminOnly.PUT("/orders/:id/status", orderHandler.AdminUpdateStatus)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
