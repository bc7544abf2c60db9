package http

import (
	"net/http"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
	"rtckit/internal/infrastructure/middleware"
	"rtckit/pkg/errors"
	"rtckit/pkg/validation"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	fileService ports.SharedFileService
}

var _ ports.SharedFileHandler = (*FileHandler)(nil)

func NewFileHandler(fileService ports.SharedFileService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
	}
}

// SetupRoutes mounts the session file routes; share and remove require auth.
func (h *FileHandler) SetupRoutes(router gin.IRouter, auth gin.HandlerFunc) {
	api := router.Group("/api/v1/sessions/:id/files")
	{
		api.GET("", h.List)
		api.POST("", auth, h.Share)
		api.DELETE("/:file_id", auth, h.Remove)
	}
}

type ShareFileRequest struct {
	Filename string `json:"filename" binding:"required"`
	Filesize int64  `json:"filesize"`
}

func sessionParam(c *gin.Context) (domain.SessionID, bool) {
	id := c.Param("id")
	if err := validation.ValidateSessionID(id); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return "", false
	}
	return domain.SessionID(id), true
}

func (h *FileHandler) Share(c *gin.Context) {
	session, ok := sessionParam(c)
	if !ok {
		return
	}
	uploader, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req ShareFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	file, err := h.fileService.Share(c.Request.Context(), session, uploader, req.Filename, req.Filesize)
	if err != nil {
		c.Error(sharedFileError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": file})
}

func (h *FileHandler) List(c *gin.Context) {
	session, ok := sessionParam(c)
	if !ok {
		return
	}

	files, err := h.fileService.List(c.Request.Context(), session)
	if err != nil {
		c.Error(sharedFileError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *FileHandler) Remove(c *gin.Context) {
	session, ok := sessionParam(c)
	if !ok {
		return
	}
	requester, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	id := domain.FileID(c.Param("file_id"))
	file, err := h.fileService.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(sharedFileError(err))
		return
	}
	if file.Session != session {
		c.Error(errors.NewNotFoundError("shared file"))
		return
	}

	if err := h.fileService.Remove(c.Request.Context(), requester, id); err != nil {
		c.Error(sharedFileError(err).WithContext("file_id", id))
		return
	}

	c.Status(http.StatusNoContent)
}
