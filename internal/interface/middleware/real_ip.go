package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP resolves the client address behind proxies and stores it under
// "real_ip" for the rate limiter and access logs. CF-Connecting-IP wins
// over the left-most X-Forwarded-For entry; anything unparseable falls
// through to gin's ClientIP.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.GetHeader("CF-Connecting-IP")
		if ip == "" {
			ip, _, _ = strings.Cut(c.GetHeader("X-Forwarded-For"), ",")
		}
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			c.Set("real_ip", parsed.String())
		} else {
			c.Set("real_ip", c.ClientIP())
		}
		c.Next()
	}
}
