package router

import "github.com/gin-gonic/gin"

// Module is a self-contained feature surface (roles, auth, debug) that
// mounts its own routes and route-level middleware on the API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
