package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/experiment"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
)

// MarkersHandler exposes the marker streams to recording software and
// accepts neural markers from the acquisition side.
type MarkersHandler struct {
	log *zap.Logger
	exp *experiment.Experiment
	hub *markers.Hub
}

// NewMarkersHandler builds the handler. hub may be nil when the stream
// backend is not configured.
func NewMarkersHandler(log *zap.Logger, exp *experiment.Experiment, hub *markers.Hub) *MarkersHandler {
	return &MarkersHandler{log: log.Named("markers_handler"), exp: exp, hub: hub}
}

// Stream sends every sample as a server-sent event named after its stream.
func (h *MarkersHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		c.String(http.StatusNotFound, "Marker stream is not enabled.")
		return
	}
	client := h.hub.Subscribe()
	if client == nil {
		c.String(http.StatusServiceUnavailable, "Marker stream is closed.")
		return
	}
	defer h.hub.Unsubscribe(client)
	h.log.Info("Marker stream connected", zap.String("client_ip", c.ClientIP()), zap.Int("clients", h.hub.Clients()))

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case s, ok := <-client.Outbound:
			if !ok {
				return false
			}
			c.SSEvent(string(s.Stream), s)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	h.log.Info("Marker stream disconnected", zap.String("client_ip", c.ClientIP()))
}

// NeuralMarker records a marker sent while the participant reads.
func (h *MarkersHandler) NeuralMarker(c *gin.Context) {
	marker := c.PostForm("marker")
	err := h.exp.NeuralMarker(marker)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"marker": marker})
	case errors.Is(err, experiment.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid marker"})
	case errors.Is(err, experiment.ErrNoSession), errors.Is(err, experiment.ErrOutOfOrder):
		c.JSON(http.StatusConflict, gin.H{"error": "No article is being read"})
	default:
		h.log.Error("Failed to record neural marker", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record marker"})
	}
}

// Healthz reports liveness and the session state.
func (h *MarkersHandler) Healthz(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"active": h.exp.Active(),
		"scene":  string(h.exp.Scene()),
	}
	if h.hub != nil {
		body["stream_clients"] = h.hub.Clients()
	}
	c.JSON(http.StatusOK, body)
}
