package goals

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
	rg.GET("/goals", h.get)
	rg.PUT("/goals", h.save)
	rg.GET("/goals/progress", h.progress)
}

func (h *Handler) get(c *gin.Context) {
	g, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, g)
}

func (h *Handler) save(c *gin.Context) {
	var in Goals
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err)
		return
	}
	g, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, g)
}

func (h *Handler) progress(c *gin.Context) {
	p, err := h.Svc.Progress(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidInput) {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "Goals storage unavailable", nil)
}
