package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP exempts loopback and RFC 1918 callers from a rate
// limit. Used on the debug surface so in-cluster scrapers are never
// throttled.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip := net.ParseIP(ipFromCtx(c))
		return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
	}
}
