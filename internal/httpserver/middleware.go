package httpserver

import (
	"crypto/subtle"
	"fmt"

	"produce-marketplace/internal/auth"
	"produce-marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

const claimsCtxKey = "claims"

// bearerMiddleware verifies the Authorization header and requires role.
func bearerMiddleware(tokens tokenVerifier, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortError(c, fmt.Errorf("%w: missing bearer token", domain.ErrAuth))
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			abortError(c, err)
			return
		}
		if claims.Role != role {
			abortError(c, fmt.Errorf("%w: role %s may not use this endpoint", domain.ErrForbidden, claims.Role))
			return
		}
		c.Set(claimsCtxKey, claims)
		c.Next()
	}
}

func customerID(c *gin.Context) string {
	v, ok := c.Get(claimsCtxKey)
	if !ok {
		return ""
	}
	return v.(auth.Claims).Subject
}

// webhookMiddleware authenticates payment provider callbacks with a shared secret.
func webhookMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abortError(c, fmt.Errorf("%w: invalid webhook secret", domain.ErrAuth))
			return
		}
		c.Next()
	}
}
