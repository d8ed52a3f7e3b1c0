package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/entsearch/internal/config"
	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/entsearch/internal/db/redis"
	"github.com/kailas-cloud/entsearch/internal/db/sqlite"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/dsl"
	logpkg "github.com/kailas-cloud/entsearch/internal/logger"
	"github.com/kailas-cloud/entsearch/internal/metrics"
	fallbackrepo "github.com/kailas-cloud/entsearch/internal/repository/fallback"
	flagsrepo "github.com/kailas-cloud/entsearch/internal/repository/flags"
	searchrepo "github.com/kailas-cloud/entsearch/internal/repository/search"
	chiTransport "github.com/kailas-cloud/entsearch/internal/transport/chi"
	"github.com/kailas-cloud/entsearch/internal/usecase/eligibility"
	healthuc "github.com/kailas-cloud/entsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/entsearch/internal/usecase/search"
	"github.com/kailas-cloud/entsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting entsearch API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("search_enabled", cfg.Elasticsearch.IsEnabled()),
		zap.Strings("es_addresses", cfg.Elasticsearch.Addresses),
		zap.String("flags_driver", cfg.Flags.Driver),
	)

	metrics.RegisterSearchMetrics()

	registry, err := buildRegistry(cfg.Entities)
	if err != nil {
		logger.Fatal("Invalid entity configuration", zap.Error(err))
	}
	logger.Info("Entities registered", zap.Strings("entities", registry.Names()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Authoritative store
	docs, err := sqlite.Open(ctx, cfg.Fallback.DSN)
	if err != nil {
		logger.Fatal("Failed to open fallback database", zap.Error(err))
	}
	defer docs.Close()

	// Search index
	var (
		engine    healthuc.Pinger
		indexExec searchEngine = offlineEngine{}
	)
	if cfg.Elasticsearch.IsEnabled() {
		es, err := elastic.NewStore(elastic.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create elasticsearch client", zap.Error(err))
		}
		engine, indexExec = es, es
		timeout := time.Duration(cfg.Elasticsearch.ReadinessTimeout) * time.Second
		if err := es.WaitForReady(ctx, timeout); err != nil {
			logger.Warn("Elasticsearch not ready, serving from fallback", zap.Error(err))
		} else {
			logger.Info("Connected to elasticsearch")
		}
	}

	// Eligibility flags
	guard := eligibility.NewGuard(cfg.Elasticsearch.IsEnabled(), registry)
	var (
		source     eligibility.FlagSource = eligibility.StaticSource(cfg.Flags.StaticFlags())
		flagsCheck healthuc.Pinger
		flagAdmin  chiTransport.FlagAdmin
	)
	refreshInterval := time.Duration(cfg.Flags.RefreshIntervalSec) * time.Second
	if cfg.Flags.Driver == "redis" {
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Flags.Addrs,
			Password: cfg.Flags.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create flag store", zap.Error(err))
		}
		defer rs.Close()
		store := flagsrepo.New(rs, cfg.Flags.Key)
		source = store
		flagsCheck = rs
	}
	refresher := eligibility.NewRefresher(guard, source, refreshInterval, logger)
	if err := refresher.Refresh(ctx); err != nil {
		logger.Warn("Initial eligibility refresh failed, all entities enabled", zap.Error(err))
	}
	if store, ok := source.(*flagsrepo.Store); ok {
		flagAdmin = &refreshingFlags{store: store, refresher: refresher}
		go refresher.Run(ctx)
	}

	// Search service
	builder := searchuc.NewBuilder(dsl.NewParser(registry), registry)
	executor := searchrepo.New(indexExec, searchrepo.Options{
		IndexPrefix:  cfg.Elasticsearch.IndexPrefix,
		DocumentType: cfg.Elasticsearch.DocumentType,
	})
	fallback := fallbackrepo.New(docs, registry)
	searchSvc := searchuc.New(
		guard, builder, executor, fallback,
		searchuc.Policy(cfg.Elasticsearch.OnEngineError), logger,
	)

	healthSvc := healthuc.New(engine, docs, flagsCheck)

	server := chiTransport.NewServer(searchSvc, healthSvc, flagAdmin, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildRegistry converts entity configuration into the entity registry.
func buildRegistry(entities map[string]config.EntityConfig) (*entity.Registry, error) {
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]entity.Definition, 0, len(names))
	for _, name := range names {
		ec := entities[name]
		fields := make([]field.Field, 0, len(ec.Fields))
		for _, fc := range ec.Fields {
			f, err := field.New(fc.Name, field.Type(fc.Type), fc.Boost, fc.Required)
			if err != nil {
				return nil, fmt.Errorf("entity %s: field %q: %w", name, fc.Name, err)
			}
			fields = append(fields, f)
		}
		def, err := entity.New(name, fields, ec.IsSearchable())
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", name, err)
		}
		defs = append(defs, def)
	}
	return entity.NewRegistry(defs...)
}

type searchEngine interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.RawResult, error)
}

// offlineEngine stands in for the index when search is disabled. The guard
// never lets a call reach it.
type offlineEngine struct{}

func (offlineEngine) Search(context.Context, *db.SearchRequest) (*db.RawResult, error) {
	return nil, errors.New("search index disabled")
}

// refreshingFlags writes a kill switch and applies it to the guard right away.
type refreshingFlags struct {
	store     *flagsrepo.Store
	refresher *eligibility.Refresher
}

func (f *refreshingFlags) SetEnabled(ctx context.Context, entityName string, enabled bool) error {
	if err := f.store.SetEnabled(ctx, entityName, enabled); err != nil {
		return err
	}
	return f.refresher.Refresh(ctx)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.String("entity", chi.URLParam(r, "entity")),
				zap.String("language_id", r.Header.Get(chiTransport.HeaderLanguageID)),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
