// Command server runs the contract lifecycle service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"pactum/internal/actor"
	actormetrics "pactum/internal/actor/metrics"
	"pactum/internal/analyzer"
	"pactum/internal/contract"
	contracthandler "pactum/internal/contract/handler"
	contractmetrics "pactum/internal/contract/metrics"
	"pactum/internal/contract/render"
	contractservice "pactum/internal/contract/service"
	jwttoken "pactum/internal/jwt_token"
	"pactum/internal/platform/config"
	"pactum/internal/platform/httpserver"
	"pactum/internal/platform/kafka"
	"pactum/internal/platform/logger"
	platformredis "pactum/internal/platform/redis"
	"pactum/internal/policy"
	policyhandler "pactum/internal/policy/handler"
	"pactum/internal/policy/matcher"
	policymetrics "pactum/internal/policy/metrics"
	policyservice "pactum/internal/policy/service"
	"pactum/internal/ruleengine"
	"pactum/internal/transaction"
	httptransport "pactum/internal/transport/http"
	"pactum/pkg/platform/audit"
	auditpg "pactum/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("opening database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	transactions := transaction.NewPostgresStore(db)
	drafts := contract.NewPostgresDraftStore(db)
	ndaDrafts := contract.NewPostgresNdaDraftStore(db)
	records := contract.NewPostgresRecordStore(db)
	chat := contract.NewPostgresChatStore(db)
	policies := policy.NewPostgresStore(db)
	auditStore := auditpg.New(db)

	var actorCache actor.Cache
	if redisClient != nil {
		actorCache = actor.NewRedisCache(redisClient.Client, cfg.Redis.ActorCacheTTL)
	}
	var remote actor.Verifier
	if cfg.InternalAPIBaseURL != "" {
		remote = actor.NewRemoteVerifier(cfg.InternalAPIBaseURL, cfg.InternalAPIKey)
	}
	actors := actor.NewService(remote, transactions, actorCache, log, actormetrics.New())

	engine := ruleengine.NewClient(cfg.RuleEngineURL)
	events := make(chan audit.Event, 64)

	contracts := contractservice.New(contractservice.Config{
		Actors:       actors,
		Transactions: transactions,
		Drafts:       drafts,
		NdaDrafts:    ndaDrafts,
		Records:      records,
		Chat:         chat,
		Policies:     policies,
		Analyzer:     analyzer.NewClient(cfg.AnalyzerURL),
		Matcher:      matcher.New(engine, log, policymetrics.New()),
		Renderer:     render.New(),
		Audit:        auditStore,
		Events:       events,
		Tx:           contractservice.NewSQLTxRunner(db),
		Logger:       log,
		Metrics:      contractmetrics.New(),
	})
	policySvc := policyservice.NewService(policies, engine, auditStore, log, cfg.UploadDir)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "pactum", "pactum-api")
	router := httptransport.NewRouter(httptransport.Config{
		TokenValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:         log,
		Handlers: []httptransport.Registrar{
			contracthandler.New(contracts, log),
			policyhandler.New(policySvc, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	worker := transaction.NewStatusWorker(transactions, events, log)
	g.Go(func() error { return worker.Run(ctx) })

	// The relay always runs: it is the durable path for status advances.
	// Without brokers it only feeds the local sinks.
	var publisher kafka.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kafka.New(cfg.Kafka)
		if err != nil {
			log.Error("connecting to kafka failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopic(ctx); err != nil {
			log.Error("ensuring lifecycle topic failed", "error", err)
			os.Exit(1)
		}
		publisher = kafkaClient
	} else {
		log.Warn("kafka brokers not configured, lifecycle events stay local")
	}
	relay := kafka.NewRelay(auditStore, publisher, log, worker)
	g.Go(func() error { return relay.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("service stopped")
}
