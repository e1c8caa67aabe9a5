package profile

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/service/profile"
)

type Handler struct {
	service *profile.Service
}

func NewHandler(service *profile.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Update(c.Request.Context(), userID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// UploadAvatar accepts a multipart form with an "avatar" file part.
func (h *Handler) UploadAvatar(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("avatar file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read avatar file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read avatar file"))
		return
	}

	url, err := h.service.UploadAvatar(c.Request.Context(), userID, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"avatar_url": url}))
}
