package http

import (
	"net/http"

	"rtckit/internal/core/ports"
	"rtckit/pkg/errors"
	"rtckit/pkg/sanitize"

	"github.com/gin-gonic/gin"
)

type HTMLHandler struct {
	sanitizer *sanitize.Sanitizer
	metrics   ports.MetricsRecorder
}

func NewHTMLHandler(sanitizer *sanitize.Sanitizer, metrics ports.MetricsRecorder) *HTMLHandler {
	return &HTMLHandler{
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

func (h *HTMLHandler) SetupRoutes(router gin.IRouter) {
	router.POST("/api/v1/html/sanitize", h.Sanitize)
}

type SanitizeRequest struct {
	HTML string `json:"html"`
}

func (h *HTMLHandler) Sanitize(c *gin.Context) {
	var req SanitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	out := h.sanitizer.HTML(req.HTML)
	h.metrics.RecordHTMLSanitized()

	c.JSON(http.StatusOK, gin.H{"html": out})
}
