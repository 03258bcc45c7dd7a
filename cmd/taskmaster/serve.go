package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskmaster/internal/config"
	"taskmaster/internal/events"
	"taskmaster/internal/handler"
	"taskmaster/internal/httpserver"
	"taskmaster/internal/repository"
	"taskmaster/internal/repository/memstore"
	"taskmaster/internal/service"
	"taskmaster/pkg/circuitbreaker"
	"taskmaster/pkg/db"
	"taskmaster/pkg/logger"
	"taskmaster/pkg/mq"
	"taskmaster/pkg/redis"
	"taskmaster/pkg/util"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving (postgres only)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	log.Info("Starting taskmaster",
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Driver),
	)

	var readiness []httpserver.ReadinessCheck

	// 存储
	var stores service.Stores
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		mem := memstore.New()
		stores = service.Stores{
			Users:      mem.Users(),
			Projects:   mem.Projects(),
			Milestones: mem.Milestones(),
			Tasks:      mem.Tasks(),
			Stats:      mem.Stats(),
		}
	default:
		pool, err := db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			return fmt.Errorf("DB initialization failed: %w", err)
		}
		defer pool.Close()

		if migrate {
			if err := repository.Migrate(ctx, pool, log); err != nil {
				return err
			}
		}

		stores = service.Stores{
			Users:      repository.NewUserRepository(pool, log),
			Projects:   repository.NewProjectRepository(pool, log),
			Milestones: repository.NewMilestoneRepository(pool, log),
			Tasks:      repository.NewTaskRepository(pool, log),
			Stats:      repository.NewStatsRepository(pool, log),
		}
		readiness = append(readiness, httpserver.ReadinessCheck{Name: "db", Check: pool.Ping})
	}

	// 事件发布：MQ 不可用时降级为不发布
	var publisher service.EventPublisher = events.Noop{}
	if cfg.MQ.URL != "" {
		mqPublisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ unavailable, events disabled", zap.Error(err))
		} else {
			defer mqPublisher.Close()
			breaker := circuitbreaker.New(circuitbreaker.DefaultConfig())
			publisher = events.NewBrokerPublisher(mqPublisher, breaker, log)
			readiness = append(readiness, httpserver.ReadinessCheck{
				Name: "mq",
				Check: func(context.Context) error {
					if !mqPublisher.IsConnected() {
						return errors.New("mq connection closed")
					}
					return nil
				},
			})
			log.Info("Event publisher ready", zap.String("exchange", mq.ExchangeName))
		}
	}

	// 幂等键：Redis 未配置时关闭
	var locker httpserver.KeyLocker
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, idempotency keys disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			locker = util.NewDeduper(rdb, cfg.Redis.IdempotencyTTL, log)
			readiness = append(readiness, httpserver.ReadinessCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return pingRedis(ctx, rdb) },
			})
		}
	}

	svc := service.New(stores, publisher, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
	}, log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:     handler.NewAuthHandler(svc, log),
		Project:  handler.NewProjectHandler(svc, log),
		Task:     handler.NewTaskHandler(svc, log),
		User:     handler.NewUserHandler(svc, log),
		Advanced: handler.NewAdvancedHandler(svc, log),
	}, httpserver.Options{
		JWTSecret:   cfg.JWT.Secret,
		Logger:      log,
		Idempotency: locker,
		Readiness:   readiness,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	log.Info("Shutting down taskmaster gracefully...")

	// 关闭 HTTP 服务器
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("taskmaster shutdown complete")
	return nil
}

func pingRedis(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}
