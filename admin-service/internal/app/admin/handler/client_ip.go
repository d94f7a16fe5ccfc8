package handler

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIP определяет адрес клиента: первый адрес X-Forwarded-For,
// затем X-Real-IP, затем адрес соединения
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" && !strings.EqualFold(first, "unknown") {
			return first
		}
	}

	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" && !strings.EqualFold(realIP, "unknown") {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
