package router

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/utils"
)

const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenFormKey    = "_csrf"
	csrfTokenContextKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// sessionToken returns the CSRF token of the session, creating it on first use.
func sessionToken(session sessions.Session) (string, error) {
	if t, ok := session.Get(csrfTokenSessionKey).(string); ok && t != "" {
		return t, nil
	}
	t, err := utils.GenerateSecureToken(32)
	if err != nil {
		return "", errors.New("failed to generate CSRF token")
	}
	session.Set(csrfTokenSessionKey, t)
	if err := session.Save(); err != nil {
		return "", errors.New("failed to save session")
	}
	return t, nil
}

// CSRFProtection puts the session token in the context for the forms and
// checks it on every state-changing request. Forms send it as _csrf, the
// page scripts as the X-CSRF-Token header.
func CSRFProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, err := sessionToken(session)
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Set(csrfTokenContextKey, token)

		if safeMethod(c.Request.Method) {
			c.Next()
			return
		}

		submitted := c.PostForm(csrfTokenFormKey)
		if submitted == "" {
			submitted = c.GetHeader(csrfTokenHeaderKey)
		}
		if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Redirect", "/")
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithError(http.StatusForbidden, errors.New("invalid CSRF token"))
			return
		}
		c.Next()
	}
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
