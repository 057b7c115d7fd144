package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rolecatalog/rbac-engine/internal/application"
	"github.com/rolecatalog/rbac-engine/internal/container"
	handlers "github.com/rolecatalog/rbac-engine/internal/interface/http"
	"github.com/rolecatalog/rbac-engine/internal/interface/middleware"
	"github.com/rolecatalog/rbac-engine/pkg/helpers"
)

// RoleModule wires the role catalog routes. Everything here requires an
// authenticated principal; the tenant and category scope come from the
// hydrated actor, never from the request.
type RoleModule struct {
	Handler *handlers.RoleHandler
	Auth    *application.AuthService
	JWT     *helpers.JWTManager
}

func NewRoleModule(h *handlers.RoleHandler, auth *application.AuthService, jwt *helpers.JWTManager) *RoleModule {
	return &RoleModule{Handler: h, Auth: auth, JWT: jwt}
}

func (m *RoleModule) Register(rg *gin.RouterGroup) {
	grp := rg.Group("/")
	grp.Use(middleware.Auth(container.GetRedis(), m.JWT, m.Auth))
	grp.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		grp.POST("/roles", m.Handler.Create)
		grp.GET("/roles", m.Handler.List)
		grp.GET("/roles/search", m.Handler.Search)
		grp.GET("/roles/:id", m.Handler.Get)
		grp.PUT("/roles/:id", m.Handler.Update)
		grp.DELETE("/roles/:id", m.Handler.Delete)
		grp.GET("/roles/:id/permissions", m.Handler.GetPermissions)
		grp.PUT("/roles/:id/permissions", m.Handler.SetPermissions)
		grp.GET("/permissions", m.Handler.Catalog)
	}
}
