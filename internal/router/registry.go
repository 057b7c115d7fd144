package router

import "github.com/gin-gonic/gin"

// Registry collects feature modules and group-wide middleware, then
// mounts everything under /api in one pass at startup.
type Registry struct {
	Engine *gin.Engine
	API    *gin.RouterGroup

	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

// Use appends middleware applied to the whole /api group, ahead of any
// module routes.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mods ...Module) {
	r.modules = append(r.modules, mods...)
}

// RegisterAll mounts the collected middleware and modules. Call once,
// after every Add.
func (r *Registry) RegisterAll() {
	r.API.Use(r.middlewares...)
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
