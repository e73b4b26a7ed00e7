package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/craftedcrochet/storefront/internal/admin"
	"github.com/craftedcrochet/storefront/internal/cart"
	"github.com/craftedcrochet/storefront/internal/catalog"
	"github.com/craftedcrochet/storefront/internal/config"
	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/internal/httpapi"
	"github.com/craftedcrochet/storefront/internal/notify"
	"github.com/craftedcrochet/storefront/internal/order"
	"github.com/craftedcrochet/storefront/internal/popularity"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/internal/storage/docstore"
	"github.com/craftedcrochet/storefront/internal/storage/memstore"
	"github.com/craftedcrochet/storefront/internal/storage/redisstore"
	"github.com/craftedcrochet/storefront/internal/storage/sheetstore"
	"github.com/craftedcrochet/storefront/internal/storage/sqlitestore"
	"github.com/craftedcrochet/storefront/kafka"
	"github.com/craftedcrochet/storefront/pkg/database"
	"github.com/craftedcrochet/storefront/pkg/logger"
	"github.com/craftedcrochet/storefront/pkg/tracing"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.ServiceName, cfg.LogLevel, cfg.LogPretty)

	tp, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("tracing disabled")
	}

	ctx := context.Background()

	// Local cache tier: sqlite when the file opens, memory otherwise.
	var cache storage.Backend
	if db, err := database.NewSQLiteConnection(cfg.SQLitePath); err != nil {
		logger.Logger.Warn().Err(err).Msg("sqlite unavailable, caching in memory")
		cache = memstore.New()
	} else {
		defer db.Close()
		store, err := sqlitestore.New(db)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("sqlite schema failed, caching in memory")
			cache = memstore.New()
		} else {
			cache = store
		}
	}
	cache = storage.WithMetrics(storage.WithTracing(cache))

	redisClient := redisstore.NewClient(cfg.RedisAddr)

	var backends []storage.Backend
	for _, name := range cfg.BackendChain {
		switch name {
		case "postgres":
			db, err := database.NewGormConnection(database.Config{
				Host:     cfg.Postgres.Host,
				Port:     cfg.Postgres.Port,
				User:     cfg.Postgres.User,
				Password: cfg.Postgres.Password,
				DBName:   cfg.Postgres.DBName,
				SSLMode:  cfg.Postgres.SSLMode,
			})
			if err != nil {
				logger.Logger.Warn().Err(err).Msg("postgres unavailable, skipping backend")
				continue
			}
			store := docstore.New(db)
			if err := store.AutoMigrate(); err != nil {
				logger.Logger.Warn().Err(err).Msg("postgres migration failed, skipping backend")
				continue
			}
			backends = append(backends, storage.WithMetrics(storage.WithTracing(store)))
		case "redis":
			backends = append(backends, storage.WithMetrics(storage.WithTracing(redisstore.New(redisClient))))
		case "sheets":
			if cfg.SheetsEndpoint == "" {
				logger.Logger.Warn().Msg("sheets endpoint not configured, skipping backend")
				continue
			}
			store := sheetstore.New(cfg.SheetsEndpoint, cfg.SheetsTimeout)
			backends = append(backends, storage.WithMetrics(storage.WithTracing(store)))
		default:
			logger.Logger.Warn().Str("backend", name).Msg("unknown backend in chain")
		}
	}
	chain := storage.NewChain(cache, backends...)

	hub := events.NewHub()

	engine := popularity.NewEngine(chain)
	if err := engine.Load(ctx); err != nil {
		logger.Logger.Warn().Err(err).Msg("order counts load failed")
	}

	cat := catalog.New(chain, hub)
	if err := cat.Load(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("catalog load failed")
	}

	carts := cart.NewManager(chain, hub)
	recorder := order.NewRecorder(chain, hub, engine)

	if cfg.AdminPasswordHash == "" {
		logger.Logger.Warn().Msg("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}
	adm := admin.New(cfg.AdminUsername, cfg.AdminPasswordHash, cat, recorder)

	// Order listeners: popularity rescoring, operator email, analytics.
	hub.OnOrderPlaced(func(events.OrderPlaced) {
		cat.RecomputePopularity(ctx, engine.Counts(), engine.TotalOrders())
	})
	hub.OnOrderPlaced(notify.NewEmailNotifier(cfg.SMTP).OrderPlaced)
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("kafka unavailable, order events disabled")
		} else {
			defer publisher.Close()
			hub.OnOrderPlaced(publisher.OrderPlaced)
		}
	}

	limiter := httpapi.NewRateLimiter(redisClient, 10, time.Minute)
	handler := httpapi.NewHandler(cat, carts, recorder, adm, limiter, cache)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: c.Handler(router),
	}

	go func() {
		logger.Logger.Info().Str("addr", cfg.HTTPAddr).Msg("storefront listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("server shutdown failed")
	}
	if tp != nil {
		if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("tracer shutdown failed")
		}
	}
}
