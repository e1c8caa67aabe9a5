package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/service/dashboard"
)

type Handler struct {
	service *dashboard.Service
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) UserHome(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	home, err := h.service.UserHome(c.Request.Context(), userID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(home))
}

func (h *Handler) StaffPortal(c *gin.Context) {
	staffID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	portal, err := h.service.StaffPortal(c.Request.Context(), staffID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(portal))
}
