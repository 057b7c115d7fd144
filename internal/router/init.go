package router

import (
	"github.com/rolecatalog/rbac-engine/internal/application"
	"github.com/rolecatalog/rbac-engine/internal/container"
	"github.com/rolecatalog/rbac-engine/internal/infrastructure/eventbus"
	pginfra "github.com/rolecatalog/rbac-engine/internal/infrastructure/postgres"
	handlers "github.com/rolecatalog/rbac-engine/internal/interface/http"
	"github.com/rolecatalog/rbac-engine/internal/router/modules"
)

// InitModules builds every feature module from the container singletons
// and registers them with the router registry. Called once during
// startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	pool := container.GetPGPool()
	logger := container.GetLogger()

	roleRepo := pginfra.NewRoleRepository(pool)
	permRepo := pginfra.NewPermissionRepository(pool)
	rolePermRepo := pginfra.NewRolePermissionRepository(pool)
	userRepo := pginfra.NewUserRepository(pool)

	events := eventbus.NewRabbitPublisher(container.GetRabbitPub())

	roleSvc := application.NewRoleService(
		roleRepo,
		permRepo,
		rolePermRepo,
		events,
		container.GetRedis(),
		logger,
		container.GetES(),
		cfg.ESRolesIndex,
	)
	authSvc := application.NewAuthService(
		userRepo,
		permRepo,
		container.GetJWT(),
		container.GetRedis(),
		logger,
	)

	roleHandler := handlers.NewRoleHandler(roleSvc, logger)
	authHandler := handlers.NewAuthHandler(authSvc, logger, cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(authHandler, authSvc, container.GetJWT()))
	r.Add(modules.NewRoleModule(roleHandler, authSvc, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
