package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's identity on the context.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authenticate(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(identityKey, identity)
		c.Set("user_id", identity.UserID)
		c.Next()
	}
}

// StaffOnly must run after AuthRequired.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !identity.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff access required"})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return services.Identity{}, false
	}
	identity, ok := v.(services.Identity)
	return identity, ok
}

func authenticate(c *gin.Context, tokens *auth.TokenManager) (services.Identity, bool) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		// Browsers cannot set headers on websocket upgrades.
		token = c.Query("token")
	}
	if token == "" {
		return services.Identity{}, false
	}

	claims, err := tokens.Parse(token)
	if err != nil {
		return services.Identity{}, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return services.Identity{}, false
	}
	return services.Identity{UserID: userID, Role: claims.Role}, true
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
