package router

import (
	"github.com/oksasatya/go-user-service/internal/application"
	"github.com/oksasatya/go-user-service/internal/container"
	handlers "github.com/oksasatya/go-user-service/internal/interface/http"
	"github.com/oksasatya/go-user-service/internal/interface/middleware"
	"github.com/oksasatya/go-user-service/internal/router/modules"
)

type UserModuleDeps struct {
	Users       *application.UserManager
	Tokens      application.TokenStrategy
	AuthHandler *handlers.AuthHandler
	UserHandler *handlers.UserHandler
}

// buildHooks logs inline and hands the index and mail observers to a
// background queue, which the registry drains on shutdown.
func buildHooks(r *Registry, index *application.UserIndex) application.Hooks {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	background := application.HookChain{application.IndexHooks{Index: index}}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		background = append(background, application.EmailHooks{
			Pub:         pub,
			AppName:     cfg.AppName,
			SupportURL:  cfg.SupportURL,
			NotifyLogin: cfg.LoginNotifyEnabled,
			Logger:      logger,
		})
	}
	async := application.NewAsyncHooks(background, cfg.HookQueueSize, cfg.HookTimeout, logger)
	r.OnClose(async.Close)

	return application.HookChain{
		application.LogHooks{Logger: logger},
		async,
	}
}

func buildUserDeps(r *Registry) UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	index := application.NewUserIndex(container.GetES(), cfg.ESUsersIndex, logger)
	users := application.NewUserManager(container.GetUserRepo(), container.GetHasher(), buildHooks(r, index), logger)
	tokens := application.NewTokenService(container.GetJWT())

	return UserModuleDeps{
		Users:       users,
		Tokens:      tokens,
		AuthHandler: handlers.NewAuthHandler(users, tokens, logger),
		UserHandler: handlers.NewUserHandler(users, index, logger),
	}
}

// InitModules wires every module from the container and adds it to the registry.
// Call once during startup, after the container is populated, and call
// r.Close on shutdown.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	deps := buildUserDeps(r)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(container.GetRedis(), container.GetLogger())
	}
	auth := middleware.Auth(deps.Tokens, deps.Users)

	r.Add(modules.NewAuthModule(deps.AuthHandler, auth, limiter))
	r.Add(modules.NewUserModule(deps.UserHandler, auth, limiter))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limiter))
	}
}
