package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rolecatalog/rbac-engine/internal/container"
	"github.com/rolecatalog/rbac-engine/internal/interface/middleware"
)

type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Public metrics endpoint (expvar), rate-limited per IP with an
	// exemption for in-cluster callers.
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
