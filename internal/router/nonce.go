package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/utils"
)

const CspNonceContextKey = "csp_nonce"

// NonceMiddleware creates a fresh nonce per request for the inline scripts of
// the page.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.GenerateSecureToken(16)
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, fmt.Errorf("failed to generate CSP nonce: %w", err))
			return
		}
		c.Set(CspNonceContextKey, nonce)
		c.Next()
	}
}

// ContentSecurityPolicy allows scripts from this server, the chart CDN and
// inline scripts carrying the request nonce.
func ContentSecurityPolicy() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("HX-Request") != "true" {
			nonce := c.GetString(CspNonceContextKey)
			c.Header("Content-Security-Policy", fmt.Sprintf(
				"default-src 'self'; script-src 'self' https://cdn.jsdelivr.net 'nonce-%s'; style-src 'self' 'unsafe-inline'; connect-src 'self'",
				nonce,
			))
		}
		c.Next()
	}
}
