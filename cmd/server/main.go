package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "kitties/internal/jwt_token"
	"kitties/internal/kitty/counter"
	"kitties/internal/kitty/dna"
	"kitties/internal/kitty/handler"
	kittymetrics "kitties/internal/kitty/metrics"
	"kitties/internal/kitty/service"
	"kitties/internal/platform/config"
	"kitties/internal/platform/health"
	"kitties/internal/platform/httpserver"
	"kitties/internal/platform/logger"
	"kitties/internal/platform/metrics"
	"kitties/internal/platform/middleware"
)

const (
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kitties: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hasher, err := dna.HasherByName(cfg.DNAHasher)
	if err != nil {
		return err
	}
	blocks, err := counter.NewEpoch(cfg.Chain.Genesis, cfg.Chain.BlockTime)
	if err != nil {
		return err
	}

	kittyMetrics := kittymetrics.New()
	healthHandler := health.New(log)

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer be.close()
	healthHandler.Add(cfg.Store, be.ping)

	g, gctx := errgroup.WithContext(ctx)

	pub, err := openPublisher(gctx, g, cfg, be, log, kittyMetrics)
	if err != nil {
		return err
	}
	defer pub.close()
	for name, check := range pub.checks {
		healthHandler.Add(name, check)
	}

	kittyService := service.New(be.store, blocks,
		service.WithLogger(log),
		service.WithMetrics(kittyMetrics),
		service.WithPublisher(pub.publisher),
		service.WithTx(be.tx),
		service.WithDeriver(dna.NewDeriver(hasher)),
	)
	healthHandler.WithCount(kittyService.Count)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := newRouter(log, metrics.New(), healthHandler, handler.New(kittyService, log),
		jwttoken.NewJWTServiceAdapter(jwtService))

	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting kitties",
			"addr", cfg.Addr,
			"store", cfg.Store,
			"events", cfg.Events,
			"dna_hasher", hasher.Name(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newRouter(log *slog.Logger, httpMetrics *metrics.Metrics, healthHandler http.Handler, kittyHandler *handler.Handler, validator middleware.CallerValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/health", healthHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, log))
		kittyHandler.Register(r)
	})
	return r
}
