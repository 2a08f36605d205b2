package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmarchan/fieldrent-backend/api/routes"
	"github.com/rmarchan/fieldrent-backend/internal/auth"
	"github.com/rmarchan/fieldrent-backend/internal/bills"
	"github.com/rmarchan/fieldrent-backend/internal/fields"
	"github.com/rmarchan/fieldrent-backend/internal/iot"
	"github.com/rmarchan/fieldrent-backend/internal/payments"
	"github.com/rmarchan/fieldrent-backend/internal/plants"
	"github.com/rmarchan/fieldrent-backend/internal/users"
	"github.com/rmarchan/fieldrent-backend/pkg/config"
	"github.com/rmarchan/fieldrent-backend/pkg/db"
	"github.com/rmarchan/fieldrent-backend/pkg/logger"
	"github.com/rmarchan/fieldrent-backend/pkg/metrics"
	"github.com/rmarchan/fieldrent-backend/pkg/migrate"
	"github.com/rmarchan/fieldrent-backend/pkg/plantid"
	"github.com/rmarchan/fieldrent-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	billingMetrics := metrics.NewBillingMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	fieldsRepo := fields.NewRepository(dbClient.DB())
	billsRepo := bills.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	iotRepo := iot.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		Repo:           usersRepo,
		Tx:             dbClient,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	fieldsService, err := fields.NewService(fieldsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create fields service", err)
		os.Exit(1)
	}

	billsService, err := bills.NewService(bills.ServiceParams{
		Repo:           billsRepo,
		Tx:             dbClient,
		Users:          usersRepo,
		Fields:         fieldsRepo,
		BillingMetrics: billingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create bills service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:           paymentsRepo,
		Bills:          billsRepo,
		Tx:             dbClient,
		BillingMetrics: billingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	iotService, err := iot.NewService(iotRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create iot service", err)
		os.Exit(1)
	}

	var plantClient *plantid.Client
	if cfg.PlantID.APIKey != "" {
		plantClient, err = plantid.NewClient(context.Background(), cfg.PlantID, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create plant.id client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "plant.id api key not set, image analysis disabled")
	}
	plantsService := plants.NewService(plantClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Registry:    registry,
			HTTPMetrics: httpMetrics,
			Auth:        authService,
			Users:       usersService,
			Fields:      fieldsService,
			Bills:       billsService,
			Payments:    paymentsService,
			IoT:         iotService,
			Plants:      plantsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
