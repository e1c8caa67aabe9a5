package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/pkg/auth"
)

type fakeProfileRepo struct {
	repository.ProfileRepository

	roles map[uuid.UUID]model.Role
}

func (f *fakeProfileRepo) GetRole(_ context.Context, id uuid.UUID) (model.Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return "", assert.AnError
	}
	return role, nil
}

func newTestRouter(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/staff", m.Authenticate(), m.RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/documentation", m.Authenticate(), m.RequireDocumenter(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func setup(roles map[uuid.UUID]model.Role) (*gin.Engine, auth.JWTService) {
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Minute,
	})
	m := NewAuthMiddleware(jwtSvc, &fakeProfileRepo{roles: roles})
	return newTestRouter(m), jwtSvc
}

func tokenFor(t *testing.T, jwtSvc auth.JWTService, userID uuid.UUID) string {
	t.Helper()
	token, _, err := jwtSvc.GenerateAccessToken(userID, "user@example.com")
	require.NoError(t, err)
	return token
}

func TestAuthenticateRejectsMissingOrMalformedHeader(t *testing.T) {
	r, _ := setup(nil)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/staff", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/staff", "not-a-jwt").Code)
}

func TestRoleIsReadFromDatabaseNotToken(t *testing.T) {
	clinician := uuid.New()
	roles := map[uuid.UUID]model.Role{clinician: model.RoleClinician}
	r, jwtSvc := setup(roles)
	token := tokenFor(t, jwtSvc, clinician)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/staff", token).Code)

	// A demotion takes effect on the next request with the same token.
	roles[clinician] = model.RoleUser
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/staff", token).Code)
}

func TestDeletedAccountIsUnauthorized(t *testing.T) {
	r, jwtSvc := setup(map[uuid.UUID]model.Role{})
	token := tokenFor(t, jwtSvc, uuid.New())

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/staff", token).Code)
}

func TestFrontDeskIsStaffButCannotDocument(t *testing.T) {
	frontDesk := uuid.New()
	r, jwtSvc := setup(map[uuid.UUID]model.Role{frontDesk: model.RoleFrontDesk})
	token := tokenFor(t, jwtSvc, frontDesk)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/staff", token).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodPost, "/documentation", token).Code)
}

func TestRegularUserCannotReachStaffRoutes(t *testing.T) {
	user := uuid.New()
	r, jwtSvc := setup(map[uuid.UUID]model.Role{user: model.RoleUser})
	token := tokenFor(t, jwtSvc, user)

	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/staff", token).Code)
}
