package foodsearch

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nutrition-backend/internal/shared/server/respond"
	"nutrition-backend/internal/shared/telemetry"
)

// Searcher is the food database used for text search and portion details.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Summary, error)
	Details(ctx context.Context, fdcID int64) (Details, error)
}

// ProductLookup resolves barcodes.
type ProductLookup interface {
	Product(ctx context.Context, barcode string) (Product, error)
}

// Handler wires HTTP handlers to the food databases.
type Handler struct {
	Foods    Searcher
	Products ProductLookup
}

func NewHandler(foods Searcher, products ProductLookup) *Handler {
	return &Handler{Foods: foods, Products: products}
}

// RegisterRoutes attaches lookup routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/foods/search", h.search)
	rg.GET("/foods/usda/:fdcId", h.details)
	rg.GET("/foods/barcode/:code", h.product)
}

func (h *Handler) search(c *gin.Context) {
	items, err := h.Foods.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) details(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("fdcId"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fdcId must be a number", nil)
		return
	}
	d, err := h.Foods.Details(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, d)
}

func (h *Handler) product(c *gin.Context) {
	p, err := h.Products.Product(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Food not found", nil)
	default:
		telemetry.Warn("foodsearch.upstream_failed", map[string]any{
			"path":  c.Request.URL.Path,
			"error": err,
		})
		respond.Error(c, http.StatusBadGateway, "upstream_error", "Food database unavailable", nil)
	}
}
