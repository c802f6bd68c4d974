package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DhavalSuthar-24/stepsquad/config"
	_ "github.com/DhavalSuthar-24/stepsquad/docs"
	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/device"
	"github.com/DhavalSuthar-24/stepsquad/internal/events"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/leaderboard"
	"github.com/DhavalSuthar-24/stepsquad/internal/steps"
	"github.com/DhavalSuthar-24/stepsquad/internal/store"
	"github.com/DhavalSuthar-24/stepsquad/internal/team"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
	"github.com/DhavalSuthar-24/stepsquad/internal/user"
	"github.com/DhavalSuthar-24/stepsquad/routes"
)

// @title StepSquad REST API
// @version 1.0
// @description Team step-count competitions: teams, daily step ingestion and leaderboards.
// @host localhost:8088
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.Initialize(); err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	cfg := config.GetConfig()
	setupLogging(cfg.App.LogLevel)

	db, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := connectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	clock := timewindow.System()

	// Repositories
	userRepo := user.NewUserRepository(db)
	compRepo := competition.NewCompetitionRepository(db)
	teamRepo := team.NewTeamRepository(db)
	ledger := steps.NewStepRepository(db)

	// Services
	board := leaderboard.NewEngine(compRepo, teamRepo, ledger, userRepo, leaderboard.NewCache(rdb, cfg.Redis.CacheTTL))
	compService := competition.NewService(compRepo, clock, cfg.Competition.Timezone).WithInvalidator(board)
	teamService := team.NewService(teamRepo, compService, clock).WithInvalidator(board)

	var sink events.Sink = events.LogSink{}
	if rdb != nil {
		sink = events.NewRedisSink(rdb)
	}
	ingest := steps.NewEngine(steps.EngineConfig{
		Competitions: compService,
		Teams:        teamRepo,
		Ledger:       ledger,
		Idempotency:  steps.NewIdempotencyRepository(db),
		Publisher:    events.NewPublisher(sink, cfg.Events.Channel, cfg.Events.PublishTimeout),
		Invalidator:  board,
		Clock:        clock,
		GraceDays:    cfg.Competition.GraceDays,
	})

	providers := device.NewProviders(device.ProviderConfig{
		FitbitClientID:     cfg.Devices.FitbitClientID,
		FitbitClientSecret: cfg.Devices.FitbitClientSecret,
		GarminEnabled:      cfg.Devices.GarminEnabled,
		GarminBaseURL:      cfg.Devices.GarminBaseURL,
	})
	deviceService := device.NewService(device.NewDeviceRepository(db), providers, ingest, clock, cfg.Competition.Timezone)

	r := routes.SetupRoutes(routes.Dependencies{
		Identity:       identityChain(cfg),
		Users:          userRepo,
		Competitions:   compService,
		Teams:          teamService,
		Steps:          ingest,
		Leaderboard:    board,
		Devices:        deviceService,
		Clock:          clock,
		Timezone:       cfg.Competition.Timezone,
		FrontendURL:    cfg.App.FrontendURL,
		CronSecretHash: cfg.Devices.CronSecretHash,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var poller *device.Poller
	if cfg.Devices.SyncEnabled {
		poller = device.NewPoller(deviceService, cfg.Devices.SyncInterval)
		poller.Start(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Starting server", "port", cfg.App.Port, "env", cfg.App.Env, "store", cfg.Store.Driver, "providers", providers.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to run server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()
	if poller != nil {
		poller.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
	slog.Info("Server stopped")
}

func setupLogging(level string) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLogLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		slog.Warn("Using in-memory store; data is lost on restart")
		return store.NewMemory(), nil
	}
	gormDB, err := config.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	gs, err := store.NewGorm(gormDB)
	if err != nil {
		return nil, err
	}
	return gs, nil
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// leaderboard then runs uncached and ingest events go to the log.
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Warn("Redis unreachable, continuing without cache and event bus", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()
		return nil
	}
	slog.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	return rdb
}

func identityChain(cfg *config.Config) identity.Provider {
	var chain identity.Chain
	if cfg.JWT.AccessTokenSecret != "" {
		chain = append(chain, identity.JWTProvider{Secret: cfg.JWT.AccessTokenSecret, AdminEmail: cfg.Auth.AdminEmail})
	}
	if cfg.Auth.DevAuthEnabled {
		chain = append(chain, identity.DevHeaderProvider{AdminEmail: cfg.Auth.AdminEmail})
	}
	return chain
}
