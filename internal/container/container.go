package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/config"
	"github.com/oksasatya/go-user-service/internal/domain/repository"
	"github.com/oksasatya/go-user-service/pkg/helpers"
)

// app-level container sharing the infrastructure built in main;
// the router wires its modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	rabbitPub   *helpers.RabbitPublisher
	esClient    *elasticsearch.Client

	userRepo   repository.UserRepository
	hasher     *helpers.PasswordHasher
	jwtManager *helpers.JWTManager
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		return helpers.NewNopLogger()
	}
	return logger
}
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetUserRepo(r repository.UserRepository) { userRepo = r }
func GetUserRepo() repository.UserRepository  { return userRepo }
func SetHasher(h *helpers.PasswordHasher)     { hasher = h }
func GetHasher() *helpers.PasswordHasher      { return hasher }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func GetJWT() *helpers.JWTManager             { return jwtManager }
