package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wishlist-service/internal/config"
	"github.com/wishlist-service/internal/events"
	"github.com/wishlist-service/internal/handler"
	"github.com/wishlist-service/internal/logging"
	"github.com/wishlist-service/internal/metrics"
	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/internal/repository"
	"github.com/wishlist-service/internal/service"
	"github.com/wishlist-service/internal/worker"
	"github.com/wishlist-service/pkg/crypto"
	"github.com/wishlist-service/pkg/response"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration
	cfg, err := config.Load(configFile, configRequired(cmd))
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "build logger").Wrap(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.JWT.Generated {
		log.Warn("jwt.secret not set; using a random secret, tokens will not survive a restart")
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := repository.Open(ctx, cfg.Database, cfg.Server.Mode, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	// Auto migrate database
	if err := repository.Migrate(db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	vault, err := crypto.NewArgon2Vault(crypto.DefaultArgon2Params)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Events: local hub, optionally fed through Redis so every instance sees every change
	hub := events.NewHub(log)
	if m != nil {
		hub.TrackWith(m.EventSubscribers)
	}
	var (
		publisher service.EventPublisher = hub
		relay     *worker.EventRelay
		rdb       *redis.Client
	)
	healthChecks := map[string]handler.Pinger{"database": sqlDB}
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("error closing redis connection", zap.Error(err))
			}
		}()
		broker := events.NewRedisBroker(rdb, cfg.Redis.Channel)
		publisher = broker
		relay = worker.NewEventRelay(broker, hub, log)
		healthChecks["redis"] = broker
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	itemRepo := repository.NewItemRepository(db)

	// Initialize services
	access := service.NewAccessControl(wishlistRepo, itemRepo)
	authService := service.NewAuthService(userRepo, vault, cfg.JWT, log)
	wishlistService := service.NewWishlistService(access, wishlistRepo, itemRepo, userRepo, publisher, log)
	var observer service.ReservationObserver
	if m != nil {
		observer = m
	}
	reservationService := service.NewReservationService(access, itemRepo, publisher, observer, log)

	response.UseReporter(problem.NewReporter(cfg.Problem.TypeBaseURI))

	router := handler.NewRouter(handler.RouterConfig{
		Auth:         authService,
		Wishlists:    wishlistService,
		Reservations: reservationService,
		Hub:          hub,
		Log:          log,
		Build:        handler.BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime},
		HealthChecks: healthChecks,
		Metrics:      m,
		MetricsPath:  cfg.Metrics.Path,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gCtx)
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			if err := relay.Start(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return oops.Code("EVENT_RELAY_FAILED").Wrap(err)
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVER_FAILED").With("addr", srv.Addr).Wrap(err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if relay != nil {
			relay.Stop()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}

	log.Info("server exited properly")
	return nil
}
