package sponsorship

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/service/dashboard"
	"github.com/islandechoes/health-api/internal/service/sponsorship"
)

type Handler struct {
	service      *sponsorship.Service
	dashboardSvc *dashboard.Service
}

func NewHandler(service *sponsorship.Service, dashboardSvc *dashboard.Service) *Handler {
	return &Handler{service: service, dashboardSvc: dashboardSvc}
}

func (h *Handler) PurchasePlan(c *gin.Context) {
	sponsorID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	var req model.PurchasePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	consent, err := h.service.PurchasePlan(c.Request.Context(), sponsorID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(consent))
}

func (h *Handler) ListPendingConsents(c *gin.Context) {
	patientID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	views, err := h.service.ListPending(c.Request.Context(), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(views))
}

func (h *Handler) AcceptConsent(c *gin.Context) {
	patientID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	consentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consent request ID"))
		return
	}

	link, err := h.service.Accept(c.Request.Context(), patientID, consentID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(link))
}

func (h *Handler) DeclineConsent(c *gin.Context) {
	patientID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	consentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consent request ID"))
		return
	}

	// The reason is optional, so a bare POST with no body is a valid decline.
	var req model.DeclineConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Decline(c.Request.Context(), patientID, consentID, req.Reason); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListSponsorships(c *gin.Context) {
	sponsorID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	views, err := h.service.ListActive(c.Request.Context(), sponsorID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(views))
}

// GetSponsoredPatient is the sponsor's detail view into a consented
// patient: metrics, visits, and notes behind an active link.
func (h *Handler) GetSponsoredPatient(c *gin.Context) {
	sponsorID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid sponsorship ID"))
		return
	}

	detail, err := h.dashboardSvc.SponsoredPatientDetail(c.Request.Context(), sponsorID, linkID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) EndSponsorship(c *gin.Context) {
	sponsorID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid sponsorship ID"))
		return
	}

	if err := h.service.End(c.Request.Context(), sponsorID, linkID); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
