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

// AuthModule wires login/refresh/logout.
// Public: POST /api/login, POST /api/refresh
// Protected: POST /api/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    *application.AuthService
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, auth *application.AuthService, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT, m.Auth))
	auth.POST("/logout", m.Handler.Logout)
}
