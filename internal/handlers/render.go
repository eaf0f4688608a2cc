package handlers

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/views"
)

// ExperimenterKey is the session flag set by a successful experimenter login.
const ExperimenterKey = "experimenter"

// IsExperimenter reports whether the request carries an experimenter login.
func IsExperimenter(c *gin.Context) bool {
	v, _ := sessions.Default(c).Get(ExperimenterKey).(bool)
	return v
}

func tokens(c *gin.Context) (csrfToken, nonce string) {
	if v, ok := c.Get("csrf_token"); ok {
		csrfToken, _ = v.(string)
	}
	if v, ok := c.Get("csp_nonce"); ok {
		nonce, _ = v.(string)
	}
	return csrfToken, nonce
}

// render writes component inside the page layout.
func render(c *gin.Context, log *zap.Logger, status int, title string, component templ.Component) {
	csrfToken, nonce := tokens(c)
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := views.Layout(title, IsExperimenter(c), csrfToken, nonce).Render(
		templ.WithChildren(c.Request.Context(), component),
		c.Writer,
	)
	if err != nil {
		log.Error("Error rendering page", zap.String("title", title), zap.Error(err))
	}
}

// redirect sends the browser to path, through HX-Redirect for HTMX requests.
func redirect(c *gin.Context, path string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", path)
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, path)
}
