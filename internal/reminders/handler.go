package reminders

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nutrition-backend/internal/shared/server/middleware"
	"nutrition-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reminders/settings", h.settings)
	rg.PUT("/reminders/settings", h.saveSettings)
	rg.GET("/reminders/schedule", h.schedule)
	rg.POST("/devices", h.registerDevice)
	rg.GET("/devices", h.devices)
}

func (h *Handler) settings(c *gin.Context) {
	s, err := h.Svc.Settings(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, s)
}

func (h *Handler) saveSettings(c *gin.Context) {
	in := DefaultSettings()
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err)
		return
	}
	s, err := h.Svc.SaveSettings(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, s)
}

func (h *Handler) schedule(c *gin.Context) {
	items, err := h.Svc.Schedule(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

type deviceRequest struct {
	Platform string `json:"platform" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

func (h *Handler) registerDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	dev, err := h.Svc.RegisterDevice(c.Request.Context(), middleware.UserIDFromContext(c), req.Platform, req.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, dev)
}

func (h *Handler) devices(c *gin.Context) {
	items, err := h.Svc.Devices(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrUnknownDevice):
		respond.Error(c, http.StatusBadRequest, "unknown_platform", "Platform must be android or ios", nil)
	case errors.Is(err, ErrPushDisabled):
		respond.Error(c, http.StatusServiceUnavailable, "push_disabled", "Push notifications are not configured", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Reminder request failed", nil)
	}
}
