package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/allocation"
	"github.com/iliyamo/club-event-engine/internal/config"
	"github.com/iliyamo/club-event-engine/internal/database"
	"github.com/iliyamo/club-event-engine/internal/hall"
	"github.com/iliyamo/club-event-engine/internal/handler"
	"github.com/iliyamo/club-event-engine/internal/logging"
	"github.com/iliyamo/club-event-engine/internal/middleware"
	"github.com/iliyamo/club-event-engine/internal/proposal"
	"github.com/iliyamo/club-event-engine/internal/queue"
	"github.com/iliyamo/club-event-engine/internal/repository"
	"github.com/iliyamo/club-event-engine/internal/repository/memstore"
	"github.com/iliyamo/club-event-engine/internal/router"
	"github.com/iliyamo/club-event-engine/internal/service"
	"github.com/iliyamo/club-event-engine/internal/utils"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		boot := logging.New("dev", "info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)
	if err := run(cfg, &log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, ping, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	loc := cfg.Location()
	halls := hall.NewRegistry(store, log)
	resolver := allocation.NewResolver(halls, cfg.ResolverTimeout, cfg.OptimalFitExcess)
	notifier := newNotifier(cfg, log)

	events := service.NewEventService(store, resolver, notifier, log, service.EventOptions{
		Policy:    proposal.NewPolicy(cfg.GracePeriod, loc),
		IdeaLimit: cfg.IdeasPerStudent,
	})
	regs := service.NewRegistrationService(store, log, nil)

	if cfg.ReminderEnabled {
		job, err := service.NewReminderJob(store, notifier, log, cfg.ReminderSchedule, loc, nil)
		if err != nil {
			return err
		}
		job.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			job.Stop(stopCtx)
		}()
	}

	if cfg.AuditConsumerEnabled {
		consumer := queue.NewAuditConsumer(cfg.RabbitMQURL, queue.DefaultQueueName, cfg.AuditLogPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	rdb, cacheCfg, rlCfg, err := loadRedis(log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Validator = utils.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.ContextTimeout(cfg.RequestTimeout))
	e.Use(middleware.NewTokenBucket(rlCfg, rdb, log))

	router.Register(e, router.Handlers{
		Events:        handler.NewEventHandler(events, loc, log),
		Registrations: handler.NewRegistrationHandler(regs, log),
		Halls:         handler.NewHallHandler(halls, events, loc, log),
		Health:        handler.Health(ping),
		HallCache:     middleware.NewRedisCache(cacheCfg, rdb, log),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.Store).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore returns the configured store, a health check (nil for memory)
// and a close function.
func openStore(ctx context.Context, cfg config.Config, log *zerolog.Logger) (repository.Store, func(context.Context) error, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memstore.New(nil), nil, func() {}, nil
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		log.Info().Msg("schema migrated")
	}
	return repository.NewMySQLStore(db), db.PingContext, func() { _ = db.Close() }, nil
}

func newNotifier(cfg config.Config, log *zerolog.Logger) service.Notifier {
	if cfg.NotifyDriver == config.NotifyRabbitMQ {
		return queue.NewPublisher(cfg.RabbitMQURL, queue.DefaultQueueName, log)
	}
	return service.NewLogNotifier(log)
}

// loadRedis connects the shared Redis client used by the response cache and
// the rate limiter.  An unreachable server yields a nil client and both
// middlewares pass requests through.
func loadRedis(log *zerolog.Logger) (*redis.Client, config.CacheConfig, config.RateLimitConfig, error) {
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		return nil, config.CacheConfig{}, config.RateLimitConfig{}, err
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return nil, config.CacheConfig{}, config.RateLimitConfig{}, err
	}
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return nil, config.CacheConfig{}, config.RateLimitConfig{}, err
	}
	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		log.Warn().Str("addr", redisCfg.Addr).Msg("redis unreachable; cache and rate limit disabled")
	}
	return rdb, cacheCfg, rlCfg, nil
}
