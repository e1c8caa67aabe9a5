package careplan

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/service/careplan"
)

type Handler struct {
	service *careplan.Service
}

func NewHandler(service *careplan.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListCarePlans(c *gin.Context) {
	plans, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(plans))
}

func (h *Handler) GetCarePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid care plan ID"))
		return
	}

	plan, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(plan))
}
