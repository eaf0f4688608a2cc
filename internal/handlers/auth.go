package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/views"
)

// AuthHandler guards the experimenter pages with a bcrypt passcode.
type AuthHandler struct {
	log *zap.Logger
}

func NewAuthHandler(log *zap.Logger) *AuthHandler {
	return &AuthHandler{log: log.Named("auth")}
}

func (h *AuthHandler) ShowLoginPage(c *gin.Context) {
	if IsExperimenter(c) {
		redirect(c, "/")
		return
	}
	csrfToken, _ := tokens(c)
	render(c, h.log, http.StatusOK, "Experimenter login", views.Login(csrfToken, ""))
}

func (h *AuthHandler) Login(c *gin.Context) {
	hash := config.Conf.Experimenter.PasswordHash
	passcode := c.PostForm("passcode")

	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) != nil {
		h.log.Warn("Failed experimenter login", zap.String("client_ip", c.ClientIP()))
		csrfToken, _ := tokens(c)
		render(c, h.log, http.StatusUnauthorized, "Experimenter login", views.Login(csrfToken, "Invalid passcode."))
		return
	}

	session := sessions.Default(c)
	session.Set(ExperimenterKey, true)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to login")
		return
	}
	h.log.Info("Experimenter logged in", zap.String("client_ip", c.ClientIP()))
	redirect(c, "/")
}

// Logout drops the experimenter flag but keeps the CSRF token and nonce.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(ExperimenterKey)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to logout")
		return
	}
	redirect(c, "/experimenter/login")
}
