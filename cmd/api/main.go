package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odontosys/odontogram-engine/internal/adapters/cache"
	"github.com/odontosys/odontogram-engine/internal/adapters/database"
	"github.com/odontosys/odontogram-engine/internal/adapters/events"
	"github.com/odontosys/odontogram-engine/internal/adapters/search"
	"github.com/odontosys/odontogram-engine/internal/api/handlers"
	"github.com/odontosys/odontogram-engine/internal/api/routes"
	"github.com/odontosys/odontogram-engine/internal/application/services"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/budgetstore"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/catalogsource"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/chartstore"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/postgres"
	redisclient "github.com/odontosys/odontogram-engine/internal/infrastructure/clients/redis"
	tsclient "github.com/odontosys/odontogram-engine/internal/infrastructure/clients/typesense"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/observability"
	"github.com/odontosys/odontogram-engine/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx := context.Background()

	// OpenTelemetry is opt-in; without it the service runs with logs only
	var metrics *observability.Metrics
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenTelemetry")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shut down OpenTelemetry")
			}
		}()

		metrics, err = observability.InitMetrics()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize metrics")
		}
	}

	// Redis backs the cache and the event bus; the service degrades to
	// uncached, event-less operation when it is unreachable.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	redisCli, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, caching and events disabled")
	} else {
		defer redisCli.Close()
		cacheProvider = cache.NewRedisAdapter(redisCli)
		eventBus = events.NewRedisEventBus(redisCli)
		defer func() {
			if err := eventBus.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close event bus")
			}
		}()
	}

	// Typesense backs procedure search; without it the catalog falls back
	// to an in-memory substring scan.
	var searchRepo repositories.ProcedureSearchRepository
	tsCli, err := tsclient.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("typesense unavailable, procedure search degraded")
	} else {
		searchAdapter := search.NewProcedureSearchAdapter(tsCli)
		if err := searchAdapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to initialize search schema, procedure search degraded")
		} else {
			searchRepo = searchAdapter
		}
	}

	catalog := services.NewCatalogService(searchRepo, cfg.Stores.CatalogPageSize)

	var (
		chartRepo     repositories.ChartRepository
		budgetRepo    repositories.BudgetRepository
		procedureRepo repositories.ProcedureRepository
	)

	switch cfg.Stores.Mode {
	case "remote":
		chartRepo = chartstore.NewClient(cfg.Stores.ChartStoreURL)
		budgetRepo = budgetstore.NewClient(cfg.Stores.BudgetStoreURL)

		if cfg.Stores.CatalogURL == "" {
			log.Fatal().Msg("CATALOG_URL is required in remote mode")
		}
		if err := catalog.Load(ctx, catalogsource.NewClient(cfg.Stores.CatalogURL)); err != nil {
			log.Fatal().Err(err).Msg("failed to load procedure catalog")
		}
		procedureRepo = services.NewCatalogRepository(catalog)

	default:
		pgCli, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pgCli.Close()

		chartRepo = database.NewChartAdapter(pgCli)
		budgetRepo = database.NewBudgetAdapter(pgCli)

		procedureAdapter := database.NewProcedureAdapter(pgCli)
		procedureRepo = procedureAdapter
		if cacheProvider != nil {
			procedureRepo = database.NewCachedProcedureAdapter(procedureAdapter, cacheProvider)
		}

		// An upstream catalog is optional here; when configured, its
		// procedures are mirrored into the local table on startup.
		if cfg.Stores.CatalogURL != "" {
			if err := catalog.Load(ctx, catalogsource.NewClient(cfg.Stores.CatalogURL)); err != nil {
				log.Warn().Err(err).Msg("failed to load procedure catalog, serving local table only")
			} else {
				for _, procedure := range catalog.All() {
					if err := procedureAdapter.Upsert(ctx, procedure); err != nil {
						log.Warn().Err(err).Str("procedure_id", procedure.ID).Msg("failed to mirror procedure")
					}
				}
			}
		}
	}

	chartHandler := handlers.NewChartHandler(chartRepo, eventBus)
	budgetHandler := handlers.NewBudgetHandler(budgetRepo, eventBus)
	procedureHandler := handlers.NewProcedureHandler(procedureRepo, catalog)

	router := routes.NewRouter(chartHandler, budgetHandler, procedureHandler, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("stores_mode", cfg.Stores.Mode).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
