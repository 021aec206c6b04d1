package middleware

import (
	"net/http"
	"strings"

	"chezben/config"
	"chezben/internal/auth"
	"chezben/internal/domain"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// Authenticate resolves the bearer token into a caller. Requests without an
// Authorization header continue as anonymous; a malformed or expired token is rejected.
func Authenticate(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := domain.Anonymous(c.ClientIP())
		header := c.GetHeader("Authorization")
		if header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
				return
			}
			claims, err := auth.ParseAccessToken(cfg, strings.TrimSpace(parts[1]))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				return
			}
			caller.UserID = claims.UserID
			caller.Role = claims.Role
			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the identity set by Authenticate, or an anonymous caller.
func CallerFrom(c *gin.Context) domain.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(domain.Caller); ok {
			return caller
		}
	}
	return domain.Anonymous(c.ClientIP())
}

func GetUserID(c *gin.Context) uint {
	return CallerFrom(c).UserID
}
