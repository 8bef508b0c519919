package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/config"
	"github.com/oksasatya/go-user-service/internal/container"
	"github.com/oksasatya/go-user-service/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-service/internal/interface/middleware"
	"github.com/oksasatya/go-user-service/internal/router"
	"github.com/oksasatya/go-user-service/pkg/helpers"
	"github.com/oksasatya/go-user-service/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Signing keys: local files or gs://bucket/object
	keys := &helpers.KeySource{CredentialsPath: cfg.GCSCredentialsJSONPath}
	privPEM, pubPEM, err := helpers.LoadKeyPair(ctx, keys, cfg.JWTPrivateKey, cfg.JWTPublicKey)
	_ = keys.Close()
	if err != nil {
		logger.Fatalf("failed to load jwt keys: %v", err)
	}
	jwtManager, err := helpers.NewJWTManager(cfg.JWTAlgorithm, privPEM, pubPEM, cfg.JWTAudience, cfg.AccessTTL)
	if err != nil {
		logger.Fatalf("failed to init jwt: %v", err)
	}

	hasher, err := helpers.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		logger.Fatalf("failed to init password hasher: %v", err)
	}

	// User store
	if cfg.UseMemoryStore() {
		logger.Warn("STORE_DRIVER=memory; users are lost on restart")
		container.SetUserRepo(memory.NewUserRepository())
	} else {
		pool, err := pginfra.NewPool(ctx, poolConfig(cfg))
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		container.SetUserRepo(pginfra.NewUserRepository(pool))
	}

	// Optional infrastructure: the service runs without each of these
	if rdb := connectRedis(ctx, cfg, logger); rdb != nil {
		defer func() { _ = rdb.Close() }()
		container.SetRedis(rdb)
	}
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; notification emails disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}
	if es := connectES(ctx, cfg, logger); es != nil {
		container.SetES(es)
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetHasher(hasher)
	container.SetJWT(jwtManager)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}

	reg := router.NewRegistry(r, cfg.APIPrefix)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithField("alg", jwtManager.Algorithm()).Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	// drain queued index and mail hooks before their clients close
	reg.Close()
	logger.Info("server exited properly")
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *redis.Client {
	if !cfg.RateLimitEnabled || cfg.RedisAddr == "" {
		return nil
	}
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		logger.WithError(err).Warn("redis unavailable; rate limiting disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func connectES(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *elasticsearch.Client {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 {
		return nil
	}
	es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed; user search disabled")
		return nil
	}
	if err := helpers.EnsureUsersIndex(ctx, es, cfg.ESUsersIndex); err != nil {
		logger.WithError(err).Warn("elasticsearch unavailable; user search disabled")
		return nil
	}
	return es
}

func poolConfig(cfg *config.Config) pginfra.PoolConfig {
	return pginfra.PoolConfig{
		DSN:             cfg.PostgresDSN(),
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	}
}
