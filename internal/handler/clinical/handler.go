package clinical

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/service/clinical"
)

type Handler struct {
	service *clinical.Service
}

func NewHandler(service *clinical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) AddNote(c *gin.Context) {
	authorID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	note, err := h.service.AddNote(c.Request.Context(), authorID, appointmentID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(note))
}

func (h *Handler) AddService(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.AddServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	svc, err := h.service.AddService(c.Request.Context(), appointmentID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(svc))
}

func (h *Handler) RecordMetrics(c *gin.Context) {
	recorderID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	var req model.RecordMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	metric, err := h.service.RecordMetrics(c.Request.Context(), recorderID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(metric))
}

func (h *Handler) ListPatientMetrics(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
			return
		}
		limit = n
	}

	metrics, err := h.service.ListMetrics(c.Request.Context(), patientID, limit)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(metrics))
}
