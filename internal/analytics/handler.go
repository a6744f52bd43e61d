package analytics

import (
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
	rg.GET("/analytics", h.summary)
	rg.POST("/analytics/report", h.report)
}

func (h *Handler) summary(c *gin.Context) {
	s, err := h.Svc.Summary(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "Meal log unavailable", nil)
		return
	}
	respond.OK(c, s)
}

func (h *Handler) report(c *gin.Context) {
	r, err := h.Svc.ExportReport(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "report_failed", "Failed to export report", nil)
		return
	}
	respond.Created(c, r)
}
