package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-service/config"
	"github.com/oksasatya/go-user-service/internal/application"
	"github.com/oksasatya/go-user-service/internal/domain/entity"
	pginfra "github.com/oksasatya/go-user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-service/pkg/helpers"
)

// seed creates the initial superuser through the user manager, so the
// password rules and hashing are the same as for any registration.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	email := flag.String("email", cfg.SeedSuperuserEmail, "superuser email")
	password := flag.String("password", cfg.SeedSuperuserPassword, "superuser password (SEED_SUPERUSER_PASSWORD)")
	flag.Parse()
	if *password == "" {
		logger.Fatal("superuser password required: set SEED_SUPERUSER_PASSWORD or pass -password")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:             cfg.PostgresDSN(),
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	hasher, err := helpers.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		logger.Fatalf("failed to init password hasher: %v", err)
	}
	users := application.NewUserManager(pginfra.NewUserRepository(pool), hasher, application.LogHooks{Logger: logger}, logger)

	yes := true
	u, err := users.CreateUserWithFlags(ctx, entity.UserCreate{
		Email:       *email,
		Password:    *password,
		IsActive:    &yes,
		IsSuperuser: &yes,
		IsVerified:  &yes,
	})
	if errors.Is(err, application.ErrUserAlreadyExists) {
		existing, gerr := users.GetUserByEmail(ctx, *email)
		if gerr != nil {
			logger.Fatalf("failed to load existing user: %v", gerr)
		}
		u, err = users.UpdateUserWithFlags(ctx, existing, entity.UserUpdate{IsActive: &yes, IsSuperuser: &yes})
	}
	if err != nil {
		logger.Fatalf("failed to seed superuser: %v", err)
	}
	fmt.Printf("seeded superuser: id=%s email=%s\n", u.ID, u.Email)
}
