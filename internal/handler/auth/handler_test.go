package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestHandler() *Handler {
	return NewHandler(nil, "https://portal.example.com/")
}

func TestSafeRedirect(t *testing.T) {
	h := newTestHandler()

	assert.True(t, h.safeRedirect("/dashboard"))
	assert.True(t, h.safeRedirect("https://portal.example.com/login"))
	assert.True(t, h.safeRedirect("https://portal.example.com"))

	assert.False(t, h.safeRedirect(""))
	// Protocol-relative URLs escape to an attacker-chosen host.
	assert.False(t, h.safeRedirect("//evil.example.com/phish"))
	assert.False(t, h.safeRedirect("https://evil.example.com/"))
	assert.False(t, h.safeRedirect("https://portal.example.com.evil.com/"))
}

func TestSignOutFallsBackToLoginPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/signout", newTestHandler().SignOut)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/signout?redirect_to=https://evil.example.com/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://portal.example.com/login", w.Header().Get("Location"))
}

func TestSignOutHonorsPortalRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/signout", newTestHandler().SignOut)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/signout?redirect_to=/goodbye", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/goodbye", w.Header().Get("Location"))
}
