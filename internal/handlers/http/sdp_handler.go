package http

import (
	"net/http"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
	"rtckit/pkg/errors"
	"rtckit/pkg/validation"

	"github.com/gin-gonic/gin"
)

type SDPHandler struct {
	sdpService ports.SDPService
}

var _ ports.SDPHandler = (*SDPHandler)(nil)

func NewSDPHandler(sdpService ports.SDPService) *SDPHandler {
	return &SDPHandler{
		sdpService: sdpService,
	}
}

func (h *SDPHandler) SetupRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/sdp")
	{
		api.POST("/munge", h.Munge)
		api.POST("/directions", h.Directions)
		api.POST("/local", h.LocalDescription)
	}
}

type MungeRequest struct {
	SDP            string `json:"sdp" binding:"required"`
	PreferredCodec string `json:"preferred_codec"`
}

type DirectionsRequest struct {
	SDP string `json:"sdp" binding:"required"`
}

type LocalDescriptionRequest struct {
	Type                   string `json:"type" binding:"required"`
	PreferredCodec         string `json:"preferred_codec"`
	RemoteSDP              string `json:"remote_sdp"`
	AudioDirection         string `json:"audio_direction"`
	VideoDirection         string `json:"video_direction"`
	ICERestart             bool   `json:"ice_restart"`
	VoiceActivityDetection bool   `json:"voice_activity_detection"`
}

func (h *SDPHandler) Munge(c *gin.Context) {
	var req MungeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateCodec(req.PreferredCodec); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	sdp, err := h.sdpService.Munge(c.Request.Context(), req.SDP, req.PreferredCodec)
	if err != nil {
		c.Error(sdpError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"sdp": sdp})
}

func (h *SDPHandler) Directions(c *gin.Context) {
	var req DirectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	directions, err := h.sdpService.MediaDirections(c.Request.Context(), req.SDP)
	if err != nil {
		c.Error(sdpError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"directions": directions})
}

func (h *SDPHandler) LocalDescription(c *gin.Context) {
	var req LocalDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateCodec(req.PreferredCodec); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	desc, err := h.sdpService.CreateLocalDescription(c.Request.Context(), domain.LocalDescriptionRequest{
		Type:                   req.Type,
		PreferredCodec:         req.PreferredCodec,
		RemoteSDP:              req.RemoteSDP,
		AudioDirection:         req.AudioDirection,
		VideoDirection:         req.VideoDirection,
		ICERestart:             req.ICERestart,
		VoiceActivityDetection: req.VoiceActivityDetection,
	})
	if err != nil {
		c.Error(negotiationError(err))
		return
	}

	c.JSON(http.StatusOK, desc)
}
