package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/finance_sync/internal/adapters/datalayer"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	"github.com/SscSPs/finance_sync/internal/core/services"
	"github.com/SscSPs/finance_sync/internal/handlers"
	"github.com/SscSPs/finance_sync/internal/middleware"
	"github.com/SscSPs/finance_sync/internal/platform/config"
	"github.com/SscSPs/finance_sync/internal/repositories/database/mongo"
	"github.com/SscSPs/finance_sync/internal/repositories/database/pgsql"
	"github.com/SscSPs/finance_sync/internal/repositories/memory"
	"github.com/SscSPs/finance_sync/internal/utils"
	"github.com/SscSPs/finance_sync/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

// @title Finance Sync API
// @version 1.0
// @description Unified data-synchronization API for personal finance collections.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open data layer", slog.String("data_layer", cfg.DataLayer), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepo()

	if err := repo.Ping(ctx); err != nil {
		if cfg.EnableDBCheck {
			logger.Error("Data layer unreachable", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Warn("Data layer unreachable at startup, writes will queue until it returns", slog.String("error", err.Error()))
	}

	dataLayer, err := datalayer.NewOfflineDataLayer(repo, datalayer.WithCacheSize(cfg.ReadCacheSize))
	if err != nil {
		logger.Error("Failed to build offline data layer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	container, err := services.NewContainer(services.ContainerConfig{
		DataLayerTimeout:    cfg.DataLayerTimeout,
		SyncStatusInterval:  cfg.SyncStatusInterval,
		NotificationHistory: cfg.NotificationHistory,
		MetricsCacheSize:    cfg.MetricsCacheSize,
	}, dataLayer, logger, services.WithEventTracker(posthogClient))
	if err != nil {
		logger.Error("Failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := container.Init(ctx); err != nil {
		logger.Error("Failed to initialize services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer container.Dispose()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, container.Services(), posthogClient); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("data_layer", cfg.DataLayer))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	if pending := dataLayer.GetSyncStatus().PendingOperations; pending > 0 {
		logger.Warn("Exiting with unsynced operations", slog.Int("pending_operations", pending))
	}
}

// openRepository builds the repository selected by DATA_LAYER and returns its cleanup.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.ResourceRepository, func(), error) {
	switch cfg.DataLayer {
	case config.DataLayerPgsql:
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
			ConnectTimeout: cfg.DataLayerTimeout,
			MaxConns:       cfg.PgsqlMaxConns,
			Verify:         cfg.EnableDBCheck,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			if cfg.EnableDBCheck {
				database.ClosePgxPool(dbPool)
				return nil, nil, err
			}
			logger.Warn("Skipping migrations, database unreachable", slog.String("error", err.Error()))
		}
		return pgsql.NewResourceRepository(dbPool), func() { database.ClosePgxPool(dbPool) }, nil

	case config.DataLayerMongo:
		client, err := database.ConnectToMongoDB(ctx, cfg.MongoURL, cfg.DataLayerTimeout)
		if err != nil {
			return nil, nil, err
		}
		repo := mongo.NewResourceRepository(mongo.NewMongoProvider(client, cfg.MongoDatabase))
		return repo, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			database.DisconnectMongo(disconnectCtx, client)
		}, nil
	}

	logger.Warn("Using in-memory data layer, data is lost on restart")
	return memory.NewResourceRepository(), func() {}, nil
}

// runMigrations applies the schema in ./migrations over a temporary database/sql connection.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	// Check for dirty migrations after running Up.
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return errors.Join(sourceErr, dbErr)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
