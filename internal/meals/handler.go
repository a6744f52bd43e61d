package meals

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

// RegisterRoutes attaches meal log routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/meals", h.list)
	rg.POST("/meals", h.addCustom)
	rg.POST("/meals/portion", h.addPortion)
	rg.POST("/meals/scanned", h.addScanned)
	rg.DELETE("/meals/:id", h.remove)

	rg.GET("/water", h.water)
	rg.POST("/water", h.addWater)

	rg.GET("/supplements", h.supplements)
	rg.POST("/supplements", h.addSupplement)

	rg.GET("/recipes", h.recipes)
	rg.POST("/recipes", h.saveRecipe)
	rg.POST("/recipes/:id/load", h.loadRecipe)
}

func (h *Handler) list(c *gin.Context) {
	entries, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": entries})
}

func (h *Handler) addCustom(c *gin.Context) {
	var in CustomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err)
		return
	}
	entry, err := h.Svc.AddCustom(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, entry)
}

func (h *Handler) addPortion(c *gin.Context) {
	var in PortionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err)
		return
	}
	entry, err := h.Svc.AddPortion(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, entry)
}

func (h *Handler) addScanned(c *gin.Context) {
	var in ScannedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err)
		return
	}
	entry, err := h.Svc.AddScanned(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, entry)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) water(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	var (
		w   Water
		err error
	)
	if day := c.Query("date"); day != "" {
		w, err = h.Svc.WaterOn(c.Request.Context(), userID, day)
	} else {
		w, err = h.Svc.WaterToday(c.Request.Context(), userID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, w)
}

type addWaterRequest struct {
	ML int `json:"ml" binding:"required"`
}

func (h *Handler) addWater(c *gin.Context) {
	var req addWaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	w, err := h.Svc.AddWater(c.Request.Context(), middleware.UserIDFromContext(c), req.ML)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, w)
}

func (h *Handler) supplements(c *gin.Context) {
	items, err := h.Svc.Supplements(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) addSupplement(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	sup, err := h.Svc.AddSupplement(c.Request.Context(), middleware.UserIDFromContext(c), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, sup)
}

func (h *Handler) recipes(c *gin.Context) {
	items, err := h.Svc.Recipes(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) saveRecipe(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	recipe, err := h.Svc.SaveRecipe(c.Request.Context(), middleware.UserIDFromContext(c), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, recipe)
}

func (h *Handler) loadRecipe(c *gin.Context) {
	entries, err := h.Svc.LoadRecipe(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": entries})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyLog):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Meal entry not found", nil)
	case errors.Is(err, ErrRecipeNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Recipe not found", nil)
	case errors.Is(err, ErrCorruptDocument):
		respond.Error(c, http.StatusConflict, "corrupt_document", "Stored data could not be updated safely", nil)
	default:
		respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "Meal log storage unavailable", nil)
	}
}
