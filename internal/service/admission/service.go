package admission

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/email"
	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/internal/storage"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/security"
)

// Service owns clinician admission: application intake and the one-shot
// admin review. Approval provisions a staff account with a temporary
// credential unless the applicant already holds an account.
type Service struct {
	repo          repository.AdmissionRepository
	profileRepo   repository.ProfileRepository
	hasher        security.PasswordHasher
	emailSvc      email.Service
	uploader      storage.Uploader
	portalBaseURL string
	logger        *logger.Logger
}

func NewService(
	repo repository.AdmissionRepository,
	profileRepo repository.ProfileRepository,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	uploader storage.Uploader,
	portalBaseURL string,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		profileRepo:   profileRepo,
		hasher:        hasher,
		emailSvc:      emailSvc,
		uploader:      uploader,
		portalBaseURL: strings.TrimRight(portalBaseURL, "/"),
		logger:        logger,
	}
}

// Submit files a new application. One open application per email.
func (s *Service) Submit(ctx context.Context, req *model.SubmitClinicianRequest, licenseData []byte, licenseContentType, licenseFilename string) (*model.ClinicianSignupRequest, error) {
	normalized := strings.ToLower(strings.TrimSpace(req.Email))

	pending, err := s.repo.HasPendingForEmail(ctx, normalized)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if pending {
		return nil, apperrors.Conflict("an application for this email is already under review", nil)
	}

	signup := &model.ClinicianSignupRequest{
		Email:         normalized,
		FullName:      req.FullName,
		LicenseNumber: req.LicenseNumber,
	}
	if req.Specialty != "" {
		signup.Specialty = &req.Specialty
	}
	if req.Institution != "" {
		signup.Institution = &req.Institution
	}

	if len(licenseData) > 0 {
		key, err := s.uploader.UploadLicense(ctx, licenseData, licenseContentType, licenseFilename)
		if err != nil {
			return nil, err
		}
		signup.LicenseImagePath = &key
	}

	if err := s.repo.Create(ctx, signup); err != nil {
		return nil, apperrors.Internal(err)
	}
	return signup, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*model.ClinicianSignupRequest, error) {
	reqs, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return reqs, nil
}

// Approve reviews the application and, when the applicant has no account
// yet, provisions a clinician profile with a temporary password delivered
// by email.
func (s *Service) Approve(ctx context.Context, adminID, requestID uuid.UUID) (*model.ClinicianSignupRequest, error) {
	signup, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, apperrors.NotFound("signup request", err)
	}

	evt, err := reviewEvent(signup.ID, model.SignupRequestApproved, adminID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := time.Now()
	won, err := s.repo.Review(ctx, signup.ID, model.SignupRequestApproved, adminID, now, evt)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !won {
		return nil, apperrors.Conflict("signup request was already reviewed", nil)
	}

	signup.Status = model.SignupRequestApproved
	signup.ReviewedBy = &adminID
	signup.ReviewedAt = &now

	// Applicants who registered as a regular user before applying keep
	// their account; approval just records the review.
	if _, err := s.profileRepo.GetByEmail(ctx, signup.Email); err == nil {
		s.logger.Info("approved clinician already holds an account", "email", signup.Email)
		return signup, nil
	}

	if err := s.provision(ctx, signup); err != nil {
		// The review stands; the admin re-runs provisioning out of band.
		s.logger.Error(err, "failed to provision clinician account",
			"request_id", signup.ID.String())
		return nil, apperrors.Internal(err)
	}
	return signup, nil
}

func (s *Service) Reject(ctx context.Context, adminID, requestID uuid.UUID) (*model.ClinicianSignupRequest, error) {
	signup, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, apperrors.NotFound("signup request", err)
	}

	evt, err := reviewEvent(signup.ID, model.SignupRequestRejected, adminID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := time.Now()
	won, err := s.repo.Review(ctx, signup.ID, model.SignupRequestRejected, adminID, now, evt)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !won {
		return nil, apperrors.Conflict("signup request was already reviewed", nil)
	}

	signup.Status = model.SignupRequestRejected
	signup.ReviewedBy = &adminID
	signup.ReviewedAt = &now
	return signup, nil
}

func (s *Service) provision(ctx context.Context, signup *model.ClinicianSignupRequest) error {
	tempPassword, err := security.GenerateTempPassword()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return err
	}

	profile := &model.Profile{
		Email:        signup.Email,
		PasswordHash: hash,
		Role:         model.RoleClinician,
		FullName:     &signup.FullName,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return err
	}

	loginURL := s.portalBaseURL + "/login"
	if err := s.emailSvc.SendTemporaryCredentials(signup.Email, signup.FullName, tempPassword, loginURL); err != nil {
		s.logger.Error(err, "failed to send credentials email", "email", signup.Email)
	}
	return nil
}

func reviewEvent(requestID uuid.UUID, status model.SignupRequestStatus, reviewedBy uuid.UUID) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"signup_request_id": requestID,
		"status":            status,
		"reviewed_by":       reviewedBy,
	})
	if err != nil {
		return nil, err
	}
	return &model.OutboxEvent{
		EventType: model.EventClinicianReviewed,
		Payload:   payload,
	}, nil
}
