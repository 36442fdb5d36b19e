package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"raisegate/internal/audit"
	audithandler "raisegate/internal/audit/handler"
	"raisegate/internal/authorisation"
	authorisationhandler "raisegate/internal/authorisation/handler"
	compliancehandler "raisegate/internal/compliance/handler"
	compliancemetrics "raisegate/internal/compliance/metrics"
	complianceservice "raisegate/internal/compliance/service"
	"raisegate/internal/compliance/store/record"
	"raisegate/internal/eligibility"
	eligibilityhandler "raisegate/internal/eligibility/handler"
	eligibilitymetrics "raisegate/internal/eligibility/metrics"
	jwttoken "raisegate/internal/jwt_token"
	"raisegate/internal/platform/config"
	"raisegate/internal/platform/httpserver"
	"raisegate/internal/platform/logger"
	"raisegate/internal/platform/middleware"
	platformredis "raisegate/internal/platform/redis"
	"raisegate/internal/sweep"
	sweephandler "raisegate/internal/sweep/handler"
	sweepmetrics "raisegate/internal/sweep/metrics"
)

// main wires dependencies and owns the process lifecycle; business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := buildStores(cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var lock sweep.Lock = sweep.NewLocalLock()
	if redisClient != nil {
		defer redisClient.Close()
		lock = sweep.NewRedisLock(redisClient.Client, 10*time.Minute)
		log.Info("sweep lock backed by redis")
	}

	publisherOpts := []audit.PublisherOption{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := audit.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer producer.Close()
		publisherOpts = append(publisherOpts, audit.WithProducer(producer, cfg.Kafka.AuditTopic))
		log.Info("audit events streaming to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	auditPublisher := audit.NewPublisher(stores.audit, log, publisherOpts...)

	tokens := jwttoken.New(cfg.JWTSigningKey, "raisegate", "raisegate-operators")

	eligibilityService := eligibility.NewService(stores.results, auditPublisher, log, eligibilitymetrics.New())
	complianceManager := complianceservice.NewManager(stores.records, auditPublisher, log, compliancemetrics.New())
	authorisationService := authorisation.NewService(stores.authorisations, auditPublisher, log)

	sweeper := sweep.New(
		stores.records,
		stores.authorisations,
		sweep.NewAuthorisationDirectory(stores.authorisations),
		sweep.NewLogNotifier(log),
		lock,
		auditPublisher,
		log,
		sweepmetrics.New(),
	)

	router := buildRouter(cfg, log, tokens,
		eligibilityhandler.New(eligibilityService, log),
		compliancehandler.New(complianceManager, log),
		authorisationhandler.New(authorisationService, log),
		audithandler.New(auditPublisher, log),
		sweephandler.New(sweeper, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	runner := sweep.NewRunner(sweeper, cfg.SweepInterval, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting raisegate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := runner.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type storeSet struct {
	results        eligibility.ResultStore
	records        complianceservice.RecordStore
	authorisations authorisation.Store
	audit          audit.Store
	db             *sql.DB
}

func (s *storeSet) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// buildStores selects postgres-backed stores when a DSN is configured and
// in-memory stores otherwise.
func buildStores(cfg config.Config, log *slog.Logger) (*storeSet, error) {
	if cfg.PostgresDSN == "" {
		log.Warn("no postgres DSN configured, using in-memory stores")
		return &storeSet{
			results:        eligibility.NewInMemoryResultStore(),
			records:        record.NewInMemory(),
			authorisations: authorisation.NewInMemoryStore(),
			audit:          audit.NewInMemoryStore(),
		}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("stores backed by postgres")
	return &storeSet{
		results:        eligibility.NewPostgresResultStore(db),
		records:        record.NewPostgres(db),
		authorisations: authorisation.NewPostgresStore(db),
		audit:          audit.NewPostgresStore(db),
		db:             db,
	}, nil
}

func buildRouter(
	cfg config.Config,
	log *slog.Logger,
	tokens *jwttoken.Service,
	eligibilityH *eligibilityhandler.Handler,
	complianceH *compliancehandler.Handler,
	authorisationH *authorisationhandler.Handler,
	auditH *audithandler.Handler,
	sweepH *sweephandler.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		eligibilityH.Register(r)
		complianceH.Register(r)
		authorisationH.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperator(tokens, log))
		auditH.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SweepTrigger(cfg.SweepSecret, tokens, log))
		sweepH.Register(r)
	})

	return r
}
