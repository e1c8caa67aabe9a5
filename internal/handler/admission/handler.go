package admission

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/service/admission"
)

type Handler struct {
	service *admission.Service
}

func NewHandler(service *admission.Service) *Handler {
	return &Handler{service: service}
}

// Submit accepts the public clinician application as a multipart form with
// an optional "license" file part.
func (h *Handler) Submit(c *gin.Context) {
	var req model.SubmitClinicianRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var licenseData []byte
	var licenseContentType string
	var licenseFilename string
	if fileHeader, err := c.FormFile("license"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read license file"))
			return
		}
		defer file.Close()

		licenseData, err = io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read license file"))
			return
		}
		licenseContentType = fileHeader.Header.Get("Content-Type")
		licenseFilename = fileHeader.Filename
	}

	signup, err := h.service.Submit(c.Request.Context(), &req, licenseData, licenseContentType, licenseFilename)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(signup))
}

func (h *Handler) ListPending(c *gin.Context) {
	reqs, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reqs))
}

func (h *Handler) Approve(c *gin.Context) {
	adminID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid signup request ID"))
		return
	}

	signup, err := h.service.Approve(c.Request.Context(), adminID, requestID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(signup))
}

func (h *Handler) Reject(c *gin.Context) {
	adminID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid signup request ID"))
		return
	}

	signup, err := h.service.Reject(c.Request.Context(), adminID, requestID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(signup))
}
