package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/lokapasar/lokapasar-backend/api/routes"
	"github.com/lokapasar/lokapasar-backend/internal/auth"
	"github.com/lokapasar/lokapasar-backend/internal/cart"
	"github.com/lokapasar/lokapasar-backend/internal/categories"
	"github.com/lokapasar/lokapasar-backend/internal/checkout"
	"github.com/lokapasar/lokapasar-backend/internal/coupons"
	"github.com/lokapasar/lokapasar-backend/internal/ledger"
	"github.com/lokapasar/lokapasar-backend/internal/notifications"
	"github.com/lokapasar/lokapasar-backend/internal/orders"
	"github.com/lokapasar/lokapasar-backend/internal/organizations"
	"github.com/lokapasar/lokapasar-backend/internal/products"
	"github.com/lokapasar/lokapasar-backend/internal/settings"
	"github.com/lokapasar/lokapasar-backend/internal/shipping"
	"github.com/lokapasar/lokapasar-backend/internal/users"
	"github.com/lokapasar/lokapasar-backend/internal/withdrawals"
	"github.com/lokapasar/lokapasar-backend/pkg/auth/session"
	"github.com/lokapasar/lokapasar-backend/pkg/config"
	"github.com/lokapasar/lokapasar-backend/pkg/db"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
	"github.com/lokapasar/lokapasar-backend/pkg/midtrans"
	"github.com/lokapasar/lokapasar-backend/pkg/migrate"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/rajaongkir"
	"github.com/lokapasar/lokapasar-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	addressRepo := users.NewAddressRepository(gdb)
	orgRepo := organizations.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	categoryRepo := categories.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	couponRepo := coupons.NewRepository(gdb)
	checkoutRepo := checkout.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	withdrawalRepo := withdrawals.NewRepository(gdb)
	ledgerRepo := ledger.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)
	settingsRepo := settings.NewRepository(gdb)

	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	midtransOpts := []midtrans.Option{}
	if cfg.Midtrans.Env == "production" {
		midtransOpts = append(midtransOpts, midtrans.WithProduction())
	}
	if cfg.Midtrans.SnapBaseURL != "" {
		midtransOpts = append(midtransOpts, midtrans.WithBaseURL(cfg.Midtrans.SnapBaseURL))
	}
	gateway, err := midtrans.NewClient(cfg.Midtrans.ServerKey, midtransOpts...)
	if err != nil {
		return routes.Services{}, fmt.Errorf("midtrans client: %w", err)
	}

	rajaOpts := []rajaongkir.Option{}
	if cfg.RajaOngkir.BaseURL != "" {
		rajaOpts = append(rajaOpts, rajaongkir.WithBaseURL(cfg.RajaOngkir.BaseURL))
	}
	courierAPI, err := rajaongkir.NewClient(cfg.RajaOngkir.APIKey, rajaOpts...)
	if err != nil {
		return routes.Services{}, fmt.Errorf("rajaongkir client: %w", err)
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:         userRepo,
		OrganizationRepo: orgRepo,
		SessionManager:   sessionManager,
		JWTConfig:        cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("auth service: %w", err)
	}
	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("register service: %w", err)
	}
	adminRegisterSvc, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("admin register service: %w", err)
	}

	userSvc, err := users.NewService(userRepo, addressRepo, cfg.Password)
	if err != nil {
		return routes.Services{}, fmt.Errorf("users service: %w", err)
	}
	orgSvc, err := organizations.NewService(orgRepo, userRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, fmt.Errorf("organizations service: %w", err)
	}
	productSvc, err := products.NewService(productRepo, orgRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, fmt.Errorf("products service: %w", err)
	}
	categorySvc, err := categories.NewService(categoryRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("categories service: %w", err)
	}
	cartSvc, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("cart service: %w", err)
	}
	couponSvc, err := coupons.NewService(couponRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("coupons service: %w", err)
	}
	shippingSvc, err := shipping.NewService(courierAPI, orgRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("shipping service: %w", err)
	}
	settingsSvc, err := settings.NewService(settingsRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("settings service: %w", err)
	}
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Repo:     checkoutRepo,
		Cart:     cartSvc,
		CartRepo: cartRepo,
		Stock:    productRepo,
		Coupons:  couponSvc,
		Consumer: couponRepo,
		Shipping: shippingSvc,
		Settings: settingsSvc,
		Orgs:     orgRepo,
		Users:    userRepo,
		Address:  addressRepo,
		Gateway:  gateway,
		Tx:       dbClient,
		Outbox:   outboxSvc,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout service: %w", err)
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		Checkout: checkoutRepo,
		Stock:    productRepo,
		Balance:  orgRepo,
		Ledger:   ledgerRepo,
		Gateway:  gateway,
		Tx:       dbClient,
		Outbox:   outboxSvc,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("orders service: %w", err)
	}
	withdrawalSvc, err := withdrawals.NewService(withdrawals.ServiceParams{
		Repo:     withdrawalRepo,
		Orgs:     orgRepo,
		Balance:  orgRepo,
		Ledger:   ledgerRepo,
		Settings: settingsSvc,
		Tx:       dbClient,
		Outbox:   outboxSvc,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("withdrawals service: %w", err)
	}
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("ledger service: %w", err)
	}
	notificationSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("notifications service: %w", err)
	}

	return routes.Services{
		Auth:          authSvc,
		Register:      registerSvc,
		AdminRegister: adminRegisterSvc,
		Users:         userSvc,
		Organizations: orgSvc,
		Products:      productSvc,
		Categories:    categorySvc,
		Cart:          cartSvc,
		Coupons:       couponSvc,
		Shipping:      shippingSvc,
		Checkout:      checkoutSvc,
		Orders:        orderSvc,
		Withdrawals:   withdrawalSvc,
		Ledger:        ledgerSvc,
		Settings:      settingsSvc,
		Notifications: notificationSvc,
	}, nil
}
