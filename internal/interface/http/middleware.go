package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"

	authDomain "huntclub/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "accessClaims"

// requireAuth 驗證 Bearer access token；role 非空時另需具備該角色。
func (s *Server) requireAuth(role authDomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := parseBearer(c.GetHeader("Authorization"))
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "unauthorized")
			return
		}

		claims, err := s.tokenSvc.ParseAccessToken(token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "invalid token")
			return
		}

		if role != "" && !claims.HasRole(role) {
			abortWithError(c, http.StatusForbidden, errCodeForbidden, "forbidden")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func accessClaims(c *gin.Context) (authDomain.AccessClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return authDomain.AccessClaims{}, false
	}
	claims, ok := v.(authDomain.AccessClaims)
	return claims, ok
}

func parseBearer(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (s *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Printf("[HTTP] %v | %3d | %13v | %-7s %s",
			start.Format("2006/01/02 - 15:04:05"),
			c.Writer.Status(),
			time.Since(start),
			c.Request.Method,
			path,
		)
	}
}

// corsMiddleware 只回寫白名單內的 Origin 並允許帶 cookie；其他來源不送任何 CORS header。
func corsMiddleware(allowed []string) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		origins[o] = struct{}{}
	}
	return func(c *gin.Context) {
		c.Header("Vary", "Origin")
		origin := c.GetHeader("Origin")
		if _, ok := origins[origin]; ok && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
