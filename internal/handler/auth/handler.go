package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/service/auth"
)

type Handler struct {
	service       *auth.Service
	portalBaseURL string
}

func NewHandler(service *auth.Service, portalBaseURL string) *Handler {
	return &Handler{
		service:       service,
		portalBaseURL: strings.TrimRight(portalBaseURL, "/"),
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	profile, tokens, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"profile": profile,
		"tokens":  tokens,
	}))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	profile, tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"profile": profile,
		"tokens":  tokens,
	}))
}

// StaffLogin signs a clinician, front desk, or admin account into the staff
// portal. Patient and sponsor accounts are rejected even with valid
// credentials.
func (h *Handler) StaffLogin(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	profile, tokens, err := h.service.LoginStaff(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"profile": profile,
		"tokens":  tokens,
	}))
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) Logout(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// SignOut is the browser-facing variant: it revokes the refresh token when
// one is posted and redirects back to the portal. Off-portal redirect
// targets are replaced with the login page.
func (h *Handler) SignOut(c *gin.Context) {
	if token := c.PostForm("refresh_token"); token != "" {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			handler.Error(c, err)
			return
		}
	}

	redirect := c.Query("redirect_to")
	if !h.safeRedirect(redirect) {
		redirect = h.portalBaseURL + "/login"
	}
	c.Redirect(http.StatusFound, redirect)
}

func (h *Handler) safeRedirect(target string) bool {
	if target == "" {
		return false
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return true
	}
	return strings.HasPrefix(target, h.portalBaseURL+"/") || target == h.portalBaseURL
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		handler.Error(c, err)
		return
	}
	// Same response whether or not the email has an account.
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"message": "if the email is registered, a reset link has been sent",
	}))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
