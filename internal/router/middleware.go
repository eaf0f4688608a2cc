package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/handlers"
)

// ExperimenterRequired lets only a logged-in experimenter through. Everyone
// else is sent to the login page.
func ExperimenterRequired(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !handlers.IsExperimenter(c) {
			log.Debug("Experimenter login required", zap.String("path", c.Request.URL.Path))
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Redirect", "/experimenter/login")
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Redirect(http.StatusFound, "/experimenter/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
