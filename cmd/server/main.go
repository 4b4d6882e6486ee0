// Command server runs the job board HTTP API.
//
// @title                       Job Board API
// @version                     1.0
// @description                 Job listings with a 15 day window, poster-owned edits and a daily urgent post quota.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/api"
	"github.com/saudijob/jobboard/internal/api/handler"
	"github.com/saudijob/jobboard/internal/api/metrics"
	"github.com/saudijob/jobboard/internal/core/ports"
	"github.com/saudijob/jobboard/internal/core/service"
	"github.com/saudijob/jobboard/internal/infrastructure/db/memory"
	"github.com/saudijob/jobboard/internal/infrastructure/db/mongo"
	"github.com/saudijob/jobboard/internal/infrastructure/db/redis"
	"github.com/saudijob/jobboard/internal/infrastructure/queue"
	"github.com/saudijob/jobboard/internal/infrastructure/retention"
	"github.com/saudijob/jobboard/internal/pkg/config"
	"github.com/saudijob/jobboard/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "jobboard-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	checks := map[string]handler.Checker{}

	// --- Storage ---
	var (
		jobRepo    ports.JobRepository
		quotaStore ports.QuotaStore
		handle     *mongo.Handle
	)

	if cfg.Listing.StoreBackend == config.BackendMongo {
		handle = mongo.NewHandle(mongo.Config{
			URI:          cfg.Mongo.URI,
			Database:     cfg.Mongo.Database,
			Timeout:      cfg.Mongo.Timeout,
			RetryDelay:   cfg.Mongo.RetryDelay,
			OpRetries:    cfg.Mongo.OpRetries,
			OpRetryDelay: cfg.Mongo.OpRetryDelay,
		}, log)
		handle.OnRetry = func(op string, _ error) {
			metrics.StorageRetriesTotal.WithLabelValues(op).Inc()
		}
		checks["mongodb"] = handle.Ping

		repo := mongo.NewJobRepository(handle)
		jobRepo = repo

		var quotaRepo *mongo.QuotaRepository
		if cfg.Quota.Backend == config.BackendMongo {
			quotaRepo = mongo.NewQuotaRepository(handle, cfg.Quota.RecordTTL)
			quotaStore = quotaRepo
		}

		// The API serves 503s until the first connection succeeds.
		go func() {
			if err := handle.Open(ctx); err != nil {
				log.Error().Err(err).Msg("mongodb never became available")
				return
			}
			if err := repo.EnsureIndexes(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to ensure job indexes")
			}
			if quotaRepo != nil {
				if err := quotaRepo.EnsureIndexes(ctx); err != nil {
					log.Warn().Err(err).Msg("failed to ensure quota indexes")
				}
			}
		}()
	} else {
		log.Warn().Msg("using in-memory job store; data is lost on restart")
		jobRepo = memory.NewJobRepository()
	}

	switch cfg.Quota.Backend {
	case config.BackendRedis:
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not reachable yet")
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		quotaStore = redis.NewQuotaStore(rdb, cfg.Quota.RecordTTL)
	case config.BackendMemory:
		quotaStore = memory.NewQuotaStore()
	}

	// --- Services ---
	var admin service.AdminVerifier
	if cfg.Admin.KeyBcrypt != "" {
		admin = service.NewBcryptAdminKey(cfg.Admin.KeyBcrypt)
	} else {
		admin = service.NewStaticAdminKey(cfg.Admin.Key)
	}
	if !cfg.AdminEnabled() {
		log.Warn().Msg("no admin key configured; admin override disabled")
	}
	guard := service.NewOwnershipGuard(admin)

	quotaService := service.NewQuotaService(quotaStore, log,
		service.WithDailyAllowance(cfg.Quota.DailyAllowance),
		service.WithLocation(cfg.Quota.Location()),
	)
	jobService := service.NewJobService(jobRepo, quotaService, guard, service.JobServiceConfig{
		ListingTTL:     cfg.Listing.TTL,
		UrgentDuration: cfg.Listing.UrgentDuration,
		Retention:      cfg.Retention.Duration(),
	}, log)
	sessions := service.NewAdminSessionService(guard, cfg.JWTSecret, cfg.Admin.SessionTTL, log)

	// --- Background workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	views := queue.NewDispatcher(cfg.Views.Workers, jobService, logger.Named("views"))
	views.Start(workerCtx)

	var purger *retention.Scheduler
	if cfg.Retention.Days > 0 {
		purger = retention.New(jobService, cfg.Retention.Schedule, cfg.Quota.Location(), logger.Named("retention"))
		if err := purger.Start(workerCtx); err != nil {
			return err
		}
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Jobs:        jobService,
		Quota:       quotaService,
		Sessions:    sessions,
		Views:       views,
		Readiness:   checks,
		JWTSecret:   cfg.JWTSecret,
		RewardDelay: cfg.Quota.RewardDelay,
		Logger:      log,
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("quota_backend", cfg.Quota.Backend).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-srvErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if purger != nil {
		purger.Stop()
	}
	cancelWorkers()
	views.Wait()
	if handle != nil {
		if err := handle.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}

	log.Info().Msg("server stopped")
	return nil
}
