package labelscan

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

// RegisterRoutes attaches label routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/labels", h.scan)
}

func (h *Handler) scan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLabelSize+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	draft, err := h.Svc.Scan(
		c.Request.Context(),
		middleware.UserIDFromContext(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		c.PostForm("name"),
		file,
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_type", "Upload a PDF or text label", nil)
		case errors.Is(err, ErrUnreadable), errors.Is(err, ErrNoNutrients):
			respond.Error(c, http.StatusUnprocessableEntity, "label_unreadable", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "Failed to process label", nil)
		}
		return
	}
	respond.OK(c, draft)
}
