package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/handler"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/pkg/auth"
)

const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextUserRole  = "userRole"
)

type AuthMiddleware struct {
	jwtSvc      auth.JWTService
	profileRepo repository.ProfileRepository
}

func NewAuthMiddleware(jwtSvc auth.JWTService, profileRepo repository.ProfileRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSvc:      jwtSvc,
		profileRepo: profileRepo,
	}
}

// Authenticate verifies the JWT and sets user identity on the context.
// Roles are never read from the token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID.String())
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// RequireRoles re-reads the caller's role from the profiles table on every
// request, so a demotion takes effect on the demoted user's next call.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString(ContextUserID))
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
			c.Abort()
			return
		}

		role, err := m.profileRepo.GetRole(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("account no longer exists"))
			c.Abort()
			return
		}
		c.Set(ContextUserRole, string(role))

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
		c.Abort()
	}
}

// RequireStaff admits clinician, admin, and legacy front desk roles.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return m.RequireRoles(model.RoleClinician, model.RoleAdmin, model.RoleFrontDesk)
}

// RequireDocumenter admits roles that may mutate clinical data. Front desk
// is read-only and excluded.
func (m *AuthMiddleware) RequireDocumenter() gin.HandlerFunc {
	return m.RequireRoles(model.RoleClinician, model.RoleAdmin)
}
