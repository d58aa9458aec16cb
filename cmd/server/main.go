package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shopcore/internal/auth"
	"shopcore/internal/cache"
	"shopcore/internal/config"
	"shopcore/internal/db"
	"shopcore/internal/handler"
	"shopcore/internal/mail"
	"shopcore/internal/model"
	"shopcore/internal/payment"
	"shopcore/internal/pdf"
	"shopcore/internal/repository"
	"shopcore/internal/router"
	"shopcore/internal/search"
	"shopcore/internal/service"
	syncengine "shopcore/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("mysql init", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Invoice{},
	); err != nil {
		logger.Fatal("migration", zap.Error(err))
	}

	mongoDB, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo init", zap.Error(err))
	}
	store := search.NewStore(mongoDB)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("search indexes", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	userRepo := repository.NewUserRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	invoiceRepo := repository.NewInvoiceRepository(gormDB)

	engine := syncengine.NewEngine(productRepo, userRepo, categoryRepo, store, logger)

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.MailEnabled())
	dispatcher := mail.NewDispatcher(mailer, logger)

	var provider payment.Provider
	if cfg.StripeSimulation || cfg.StripeSecretKey == "" {
		logger.Warn("payment provider running in simulation mode")
		provider = payment.NewSimulatedProvider(cfg.FrontendURL)
	} else {
		provider = payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	}

	if err := os.MkdirAll(cfg.InvoiceDir, 0o755); err != nil {
		logger.Fatal("invoice dir", zap.Error(err))
	}
	renderer := pdf.NewInvoiceRenderer(cfg.InvoiceDir)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	authService := service.NewAuthService(userRepo, jwtService, tokenStore, dispatcher, cfg)
	userService := service.NewUserService(userRepo, engine, dispatcher, cfg, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, userRepo, engine, dispatcher, cacheClient, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, dispatcher, logger)
	paymentService := service.NewPaymentService(provider, orderRepo, invoiceRepo, productRepo,
		userRepo, renderer, dispatcher, engine, cacheClient, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg,
		handler.NewAuthHandler(authService, userService),
		handler.NewUserHandler(userService),
		handler.NewCatalogHandler(catalogService),
		handler.NewOrderHandler(orderService),
		handler.NewPaymentHandler(paymentService),
		handler.NewInvoiceHandler(invoiceService),
		handler.NewSearchHandler(store),
		handler.NewSyncHandler(engine),
	)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: e,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		engine.Run(ctx, cfg.SyncInterval)
		return nil
	})

	g.Go(func() error {
		dispatcher.Run(ctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("terminated", zap.Error(err))
	}
	logger.Info("stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
