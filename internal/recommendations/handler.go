package recommendations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nutrition-backend/internal/shared/server/middleware"
	"nutrition-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches recommendation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recommendations", h.list)
	rg.POST("/recommendations/:foodId/accept", h.accept)
	rg.GET("/recommendations/history", h.history)
	rg.GET("/foods", h.foods)
}

func (h *Handler) list(c *gin.Context) {
	result, err := h.Svc.Recommend(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) accept(c *gin.Context) {
	foodID := c.Param("foodId")
	c.Set("foodId", foodID)

	result, err := h.Svc.Accept(c.Request.Context(), middleware.UserIDFromContext(c), foodID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, result)
}

func (h *Handler) history(c *gin.Context) {
	hist, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "Acceptance history unavailable", nil)
		return
	}
	respond.OK(c, gin.H{"items": hist})
}

func (h *Handler) foods(c *gin.Context) {
	if h.Svc.Catalog == nil {
		writeError(c, ErrCatalogUnavailable)
		return
	}
	respond.OK(c, gin.H{
		"version": h.Svc.Catalog.Version(),
		"items":   h.Svc.Catalog.Foods(),
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCatalogUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "catalog_unavailable", "Food catalog is not loaded", nil)
	case errors.Is(err, ErrFoodNotFound):
		respond.Error(c, http.StatusNotFound, "food_not_found", "Food not found in catalog", gin.H{"foodId": c.Param("foodId")})
	case errors.Is(err, ErrAcceptNotRecorded):
		respond.Error(c, http.StatusServiceUnavailable, "accept_not_recorded", "Accept was not recorded, retry later", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Internal error", nil)
	}
}
