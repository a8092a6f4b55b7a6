package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// AuthMiddleware accepts a bearer token, or a token query parameter for
// clients such as browsers opening a websocket that cannot set headers.
func AuthMiddleware(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if h := c.GetHeader("Authorization"); h != "" {
			if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
				c.Abort()
				return
			}
			raw = strings.TrimSpace(h[len("Bearer "):])
		} else {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
