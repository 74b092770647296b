package api

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const ErrorForbiddenOrigin = "FORBIDDEN_ORIGIN"

// sameOrigin accepts requests without an Origin header (curl, the CLI), from
// the serving host itself, or from a loopback page such as a dev server on
// another local port.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return isLoopback(u.Hostname())
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// originGuard rejects browser requests coming from foreign pages.
func originGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sameOrigin(c.Request) {
			fail(c, http.StatusForbidden, ErrorForbiddenOrigin, "origin not allowed")
			c.Abort()
			return
		}
		c.Next()
	}
}
