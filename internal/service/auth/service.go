package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/islandechoes/health-api/internal/email"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/pkg/auth"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/security"
)

const resetTokenTTL = time.Hour

type Service struct {
	profileRepo     repository.ProfileRepository
	tokenRepo       repository.TokenRepository
	sponsorshipRepo repository.SponsorshipRepository
	jwtSvc          auth.JWTService
	hasher          security.PasswordHasher
	emailSvc        email.Service
	portalBaseURL   string
	logger          *logger.Logger
}

func NewService(
	profileRepo repository.ProfileRepository,
	tokenRepo repository.TokenRepository,
	sponsorshipRepo repository.SponsorshipRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	portalBaseURL string,
	logger *logger.Logger,
) *Service {
	return &Service{
		profileRepo:     profileRepo,
		tokenRepo:       tokenRepo,
		sponsorshipRepo: sponsorshipRepo,
		jwtSvc:          jwtSvc,
		hasher:          hasher,
		emailSvc:        emailSvc,
		portalBaseURL:   strings.TrimRight(portalBaseURL, "/"),
		logger:          logger,
	}
}

// Signup registers a sponsor/patient account. Staff accounts are never
// self-registered; they come out of the clinician admission flow.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.Profile, *model.TokenResponse, error) {
	normalized := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.profileRepo.GetByEmail(ctx, normalized); err == nil && existing != nil {
		return nil, nil, apperrors.Conflict("an account with this email already exists", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, apperrors.BadRequest("invalid password", err)
	}

	profile := &model.Profile{
		Email:        normalized,
		PasswordHash: hash,
		Role:         model.RoleUser,
		FullName:     &req.FullName,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	// Consents addressed to this email before the account existed become
	// visible on the new patient's dashboard.
	if claimed, err := s.sponsorshipRepo.ClaimConsentsForEmail(ctx, normalized, profile.ID); err != nil {
		s.logger.Error(err, "failed to claim pending consents", "email", normalized)
	} else if claimed > 0 {
		s.logger.Info("claimed pending consents for new account",
			"user_id", profile.ID.String(), "count", claimed)
	}

	tokens, err := s.issueTokens(profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, tokens, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.Profile, *model.TokenResponse, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password", nil)
	}

	if err := s.hasher.Compare(profile.PasswordHash, req.Password); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password", nil)
	}

	tokens, err := s.issueTokens(profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, tokens, nil
}

// LoginStaff authenticates against the staff portal. Credentials are checked
// the same way as Login, but a valid account without a staff role is turned
// away before any tokens are issued.
func (s *Service) LoginStaff(ctx context.Context, req *model.LoginRequest) (*model.Profile, *model.TokenResponse, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password", nil)
	}

	if err := s.hasher.Compare(profile.PasswordHash, req.Password); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password", nil)
	}

	if !profile.Role.IsStaff() {
		return nil, nil, apperrors.Forbidden("not authorized for the staff portal", nil)
	}

	tokens, err := s.issueTokens(profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, tokens, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token", err)
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.Unauthorized("refresh token revoked", nil)
	}

	profile, err := s.profileRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("account no longer exists", err)
	}

	return s.issueTokens(profile)
}

// Logout revokes the refresh token so it cannot mint new access tokens.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		// An invalid token has nothing to revoke.
		return nil
	}
	expiry := time.Now().Add(resetTokenTTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	return s.tokenRepo.RevokeToken(ctx, refreshToken, expiry)
}

// ForgotPassword never reveals whether the email has an account.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.tokenRepo.StoreResetToken(ctx, profile.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return apperrors.Internal(err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.portalBaseURL, token)
	if err := s.emailSvc.SendPasswordReset(profile.Email, resetURL); err != nil {
		s.logger.Error(err, "failed to send password reset email", "user_id", profile.ID.String())
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	userID, err := s.tokenRepo.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		return apperrors.BadRequest("invalid or expired reset token", err)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.BadRequest("invalid password", err)
	}
	if err := s.profileRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// ValidateAccessToken is used by the auth middleware.
func (s *Service) ValidateAccessToken(token string) (*auth.Claims, error) {
	return s.jwtSvc.ValidateToken(token)
}

func (s *Service) issueTokens(profile *model.Profile) (*model.TokenResponse, error) {
	access, expiresAt, err := s.jwtSvc.GenerateAccessToken(profile.ID, profile.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(profile.ID, profile.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
