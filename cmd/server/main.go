// Command server runs the consent broker: credential store, consent engine
// and transparency log behind one HTTP listener.
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

	"golang.org/x/sync/errgroup"

	"trustgrid/internal/consent"
	consenthandler "trustgrid/internal/consent/handler"
	"trustgrid/internal/credential"
	credentialhandler "trustgrid/internal/credential/handler"
	jwttoken "trustgrid/internal/jwt_token"
	"trustgrid/internal/oracle"
	"trustgrid/internal/platform/config"
	"trustgrid/internal/platform/httpserver"
	"trustgrid/internal/platform/logger"
	"trustgrid/internal/platform/metrics"
	platformpostgres "trustgrid/internal/platform/postgres"
	platformredis "trustgrid/internal/platform/redis"
	"trustgrid/internal/transparency"
	transparencyhandler "trustgrid/internal/transparency/handler"
	httptransport "trustgrid/internal/transport/http"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Backing stores: PostgreSQL when configured, in-memory otherwise.
	var (
		orgStore          credential.OrgStore
		keyStore          credential.KeyStore
		citizenStore      credential.CitizenStore
		consentStore      consent.Store
		transparencyStore transparency.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := platformpostgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		orgStore = credential.NewPostgresOrgStore(db)
		keyStore = credential.NewPostgresKeyStore(db)
		citizenStore = credential.NewPostgresCitizenStore(db)
		consentStore = consent.NewPostgresStore(db)
		transparencyStore = transparency.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		orgStore = credential.NewInMemoryOrgStore()
		keyStore = credential.NewInMemoryKeyStore()
		citizenStore = credential.NewInMemoryCitizenStore()
		consentStore = consent.NewInMemoryStore()
		transparencyStore = transparency.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	documents, err := credential.NewFileDocumentStore(cfg.DocumentsDir)
	if err != nil {
		return err
	}

	credentialOpts := []credential.Option{
		credential.WithLogger(log),
		credential.WithMetrics(m),
	}
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		credentialOpts = append(credentialOpts,
			credential.WithRevocationList(credential.NewRedisRevocationList(redisClient.Client)))
		log.Info("using redis revocation list")
	}

	credentials := credential.New(
		orgStore, keyStore, citizenStore, documents,
		oracle.NewRuleVerifier(),
		credentialOpts...,
	)

	transparencyOpts := []transparency.Option{transparency.WithLogger(log)}
	var fanout *transparency.Fanout
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := transparency.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		fanout = transparency.NewFanout(publisher, 0, log)
		transparencyOpts = append(transparencyOpts, transparency.WithFanout(fanout))
		log.Info("publishing transparency events", "topic", cfg.KafkaTopic)
	}
	transparencyLog := transparency.New(transparencyStore, transparencyOpts...)

	var policyOracle oracle.Oracle = oracle.NewRuleOracle()
	if cfg.OracleURL != "" {
		policyOracle = oracle.NewHTTPOracle(cfg.OracleURL, cfg.OracleTimeout)
	}
	engine := consent.New(consentStore, credentials, policyOracle, transparencyLog,
		consent.WithLogger(log),
		consent.WithMetrics(m),
		consent.WithOracleTimeout(cfg.OracleTimeout),
	)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.SessionTTL)

	router := httptransport.NewRouter(log,
		credentialhandler.New(credentials, tokens, tokens, log),
		consenthandler.New(engine, credentials, tokens, log),
		transparencyhandler.New(transparencyLog, credentials, tokens, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	if fanout != nil {
		g.Go(func() error {
			return fanout.Run(gctx)
		})
	}
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
