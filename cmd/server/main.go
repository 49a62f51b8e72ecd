// Command server runs the dugout HTTP API: player identity resolution and
// the versioned scouting-report cache behind it.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dugout/internal/audit"
	auditkafka "dugout/internal/audit/kafka"
	playerhandler "dugout/internal/player/handler"
	playermetrics "dugout/internal/player/metrics"
	playerservice "dugout/internal/player/service"
	playerstore "dugout/internal/player/store"
	"dugout/internal/platform/config"
	"dugout/internal/platform/httpserver"
	"dugout/internal/platform/logger"
	"dugout/internal/platform/middleware"
	"dugout/internal/platform/postgres"
	platformredis "dugout/internal/platform/redis"
	reporthandler "dugout/internal/report/handler"
	reportmetrics "dugout/internal/report/metrics"
	reportservice "dugout/internal/report/service"
	reportstore "dugout/internal/report/store"
	"dugout/internal/resolver"
	resolvercache "dugout/internal/resolver/cache"
	resolverhandler "dugout/internal/resolver/handler"
	resolvermetrics "dugout/internal/resolver/metrics"
	"dugout/pkg/platform/middleware/requestid"
	"dugout/pkg/platform/middleware/requesttime"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher audit.Publisher = audit.NewMemoryPublisher()
	var kafkaPublisher *auditkafka.Publisher
	if cfg.KafkaBrokers != "" {
		kafkaPublisher, err = auditkafka.New(cfg.KafkaBrokers, log)
		if err != nil {
			log.Error("connect kafka", "error", err.Error())
			os.Exit(1)
		}
		publisher = kafkaPublisher
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	players := playerstore.NewPostgres(db)
	reports := reportstore.NewPostgres(db)

	playerSvc := playerservice.New(players,
		playerservice.WithLogger(log),
		playerservice.WithAuditPublisher(publisher),
		playerservice.WithMetrics(playermetrics.New(reg)),
	)
	resolverSvc := resolver.New(players,
		resolver.WithLogger(log),
		resolver.WithMetrics(resolvermetrics.New(reg)),
		resolver.WithCache(resolvercache.NewExternalID(redisClient, cfg.ResolverCacheTTL, log)),
	)
	reportSvc := reportservice.New(reports, newReportPostgresTx(db), cfg.ReportTTL,
		reportservice.WithLogger(log),
		reportservice.WithAuditPublisher(publisher),
		reportservice.WithMetrics(reportmetrics.New(reg)),
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireBearer(cfg.JWTSigningKey, log))
		playerhandler.New(playerSvc, log).Register(r)
		resolverhandler.New(resolverSvc, log).Register(r)
		reporthandler.New(reportSvc, log).Register(r)
	})

	srv := httpserver.New(cfg, router)

	go func() {
		log.Info("starting dugout", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(shutdownCtx); err != nil {
			log.Error("kafka close failed", "error", err.Error())
		}
	}
}
