package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rolecatalog/rbac-engine/internal/application"
	"github.com/rolecatalog/rbac-engine/pkg/helpers"
	"github.com/rolecatalog/rbac-engine/pkg/response"
)

// ActorKey is the gin context key under which the hydrated acting
// principal is stored.
const ActorKey = "actor"

// Auth validates the access token, checks the Redis session and
// hydrates the acting principal (user, own role, effective permission
// set) into the request context. Handlers read it via ActorFrom.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, auth *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", err.Error())
			c.Abort()
			return
		}

		// Session must still exist and match the token's session id.
		key := "user:session:" + claims.UserID
		data, err := rdb.HGetAll(c.Request.Context(), key).Result()
		if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
			c.Abort()
			return
		}

		actor, err := auth.BuildActor(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "unknown principal", nil)
			c.Abort()
			return
		}

		c.Set("userID", actor.UserID)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// ActorFrom extracts the acting principal set by Auth.
func ActorFrom(c *gin.Context) (application.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return application.Actor{}, false
	}
	actor, ok := v.(application.Actor)
	return actor, ok
}
