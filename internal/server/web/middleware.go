package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lodeworks/quarry/internal/server/auth"
	"github.com/lodeworks/quarry/internal/server/models"
)

const accountIDKey = "account_id"

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// requireAuth rejects requests without a valid access token and stores the
// authenticated account id on the context.
func requireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		accountID, err := auth.GetAccountIDFromToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

// optionalAuth stores the account id when a valid token is present and lets
// anonymous requests pass through.
func optionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if accountID, err := auth.GetAccountIDFromToken(token, secret); err == nil {
				c.Set(accountIDKey, accountID)
			}
		}
		c.Next()
	}
}

func accountID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}

// permissions derives the read permissions of the request: anonymous callers
// see public content only, authenticated ones may also see hidden versions of
// their reach.
func permissions(c *gin.Context) models.Permission {
	if accountID(c) == "" {
		return models.PermViewPublicInfo
	}
	return models.PermViewPublicInfo | models.PermSeeHidden
}
