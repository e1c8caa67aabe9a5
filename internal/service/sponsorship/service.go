package sponsorship

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/internal/service/careplan"
	"github.com/islandechoes/health-api/internal/service/notification"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
)

// Service owns the sponsorship lifecycle: purchase, consent, active links.
// A consent request leaves pending exactly once; the accept path creates
// the sponsor-patient link in the same transaction.
type Service struct {
	repo        repository.SponsorshipRepository
	profileRepo repository.ProfileRepository
	careplanSvc *careplan.Service
	notifSvc    *notification.Service
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewService(
	repo repository.SponsorshipRepository,
	profileRepo repository.ProfileRepository,
	careplanSvc *careplan.Service,
	notifSvc *notification.Service,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:        repo,
		profileRepo: profileRepo,
		careplanSvc: careplanSvc,
		notifSvc:    notifSvc,
		logger:      logger,
		metrics:     metrics,
	}
}

// PurchasePlan simulates payment and opens a consent request addressed to
// the patient's email. Nothing is shared until the patient accepts.
func (s *Service) PurchasePlan(ctx context.Context, sponsorID uuid.UUID, req *model.PurchasePlanRequest) (*model.ConsentRequest, error) {
	plan, err := s.careplanSvc.Get(ctx, req.CarePlanID)
	if err != nil {
		return nil, err
	}

	sponsor, err := s.profileRepo.Get(ctx, sponsorID)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}

	patientEmail := strings.ToLower(strings.TrimSpace(req.PatientEmail))
	if patientEmail == sponsor.Email {
		return nil, apperrors.BadRequest("you cannot sponsor your own account", nil)
	}

	now := time.Now()
	consent := &model.ConsentRequest{
		SponsorID:          sponsorID,
		PatientEmail:       patientEmail,
		CarePlanID:         plan.ID,
		PaymentSimulatedAt: &now,
	}

	// Resolve the patient up front when the account already exists so the
	// request shows on their dashboard immediately.
	if patient, err := s.profileRepo.GetByEmail(ctx, patientEmail); err == nil {
		consent.PatientID = &patient.ID
	}

	if err := s.repo.CreateConsent(ctx, consent); err != nil {
		return nil, apperrors.Internal(err)
	}

	if consent.PatientID != nil {
		s.notifSvc.Notify(ctx, *consent.PatientID, model.NotificationConsentRequest,
			"New care plan sponsorship",
			sponsor.DisplayName("A family member")+" wants to sponsor the "+plan.Name+" plan for you. Review the request to accept or decline.",
			&consent.ID)
	}

	return consent, nil
}

// ListPending returns the patient's open consent requests decorated with
// sponsor and plan names.
func (s *Service) ListPending(ctx context.Context, patientID uuid.UUID) ([]*model.PendingConsentView, error) {
	consents, err := s.repo.ListPendingForPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(consents) == 0 {
		return []*model.PendingConsentView{}, nil
	}

	sponsorIDs := make([]uuid.UUID, 0, len(consents))
	for _, c := range consents {
		sponsorIDs = append(sponsorIDs, c.SponsorID)
	}
	refs, err := s.profileRepo.GetRefs(ctx, sponsorIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	views := make([]*model.PendingConsentView, 0, len(consents))
	for _, c := range consents {
		view := &model.PendingConsentView{
			ID:           c.ID,
			PatientEmail: c.PatientEmail,
			SponsorName:  "A family member",
			CreatedAt:    c.CreatedAt,
		}
		if ref, ok := refs[c.SponsorID]; ok && ref.FullName != nil {
			view.SponsorName = *ref.FullName
		}
		if plan, err := s.careplanSvc.Get(ctx, c.CarePlanID); err == nil {
			view.CarePlan = &model.CarePlanRef{
				ID:         plan.ID,
				Slug:       plan.Slug,
				Name:       plan.Name,
				PriceCents: plan.PriceCents,
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Accept transitions the consent to accepted and activates the link. The
// losing side of a concurrent double-respond gets a conflict.
func (s *Service) Accept(ctx context.Context, patientID uuid.UUID, consentID uuid.UUID) (*model.SponsorPatientPlan, error) {
	consent, err := s.getOwnedConsent(ctx, patientID, consentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	link := &model.SponsorPatientPlan{
		SponsorID:        consent.SponsorID,
		PatientID:        patientID,
		CarePlanID:       consent.CarePlanID,
		ConsentRequestID: consent.ID,
		StartedAt:        now,
	}

	evt, err := consentEvent(consent.ID, patientID, model.ConsentStatusAccepted)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	won, err := s.repo.AcceptConsent(ctx, consent.ID, now, link, evt)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !won {
		return nil, apperrors.Conflict("consent request was already responded to", nil)
	}
	s.metrics.ConsentTransitions.WithLabelValues(string(model.ConsentStatusAccepted)).Inc()

	patient, _ := s.profileRepo.Get(ctx, patientID)
	s.notifSvc.Notify(ctx, consent.SponsorID, model.NotificationSponsorshipAccepted,
		"Sponsorship accepted",
		patient.DisplayName("The patient")+" accepted your sponsorship. You now have access to their care updates.",
		&consent.ID)

	return link, nil
}

func (s *Service) Decline(ctx context.Context, patientID uuid.UUID, consentID uuid.UUID, reason string) error {
	consent, err := s.getOwnedConsent(ctx, patientID, consentID)
	if err != nil {
		return err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	evt, err := consentEvent(consent.ID, patientID, model.ConsentStatusDeclined)
	if err != nil {
		return apperrors.Internal(err)
	}

	won, err := s.repo.DeclineConsent(ctx, consent.ID, reasonPtr, time.Now(), evt)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !won {
		return apperrors.Conflict("consent request was already responded to", nil)
	}
	s.metrics.ConsentTransitions.WithLabelValues(string(model.ConsentStatusDeclined)).Inc()
	return nil
}

// ListActive returns the sponsor's dashboard rows.
func (s *Service) ListActive(ctx context.Context, sponsorID uuid.UUID) ([]*model.SponsorshipView, error) {
	links, err := s.repo.ListActiveBySponsor(ctx, sponsorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(links) == 0 {
		return []*model.SponsorshipView{}, nil
	}

	patientIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		patientIDs = append(patientIDs, l.PatientID)
	}
	refs, err := s.profileRepo.GetRefs(ctx, patientIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	views := make([]*model.SponsorshipView, 0, len(links))
	for _, l := range links {
		view := &model.SponsorshipView{
			ID:        l.ID,
			StartedAt: l.StartedAt,
			Patient:   refs[l.PatientID],
		}
		if plan, err := s.careplanSvc.Get(ctx, l.CarePlanID); err == nil {
			view.CarePlan = &model.CarePlanRef{
				ID:         plan.ID,
				Slug:       plan.Slug,
				Name:       plan.Name,
				PriceCents: plan.PriceCents,
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// End closes an active link. Ended links stop all sharing immediately.
func (s *Service) End(ctx context.Context, sponsorID, linkID uuid.UUID) error {
	ok, err := s.repo.EndLink(ctx, linkID, sponsorID, time.Now())
	if err != nil {
		return apperrors.Internal(err)
	}
	if !ok {
		return apperrors.NotFound("sponsorship", nil)
	}
	return nil
}

func (s *Service) getOwnedConsent(ctx context.Context, patientID, consentID uuid.UUID) (*model.ConsentRequest, error) {
	consent, err := s.repo.GetConsent(ctx, consentID)
	if err != nil {
		return nil, apperrors.NotFound("consent request", err)
	}

	if consent.PatientID != nil {
		if *consent.PatientID != patientID {
			return nil, apperrors.Forbidden("this consent request is not addressed to you", nil)
		}
		return consent, nil
	}

	// Unclaimed request: the caller owns it iff it is addressed to their
	// account email.
	patient, err := s.profileRepo.Get(ctx, patientID)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}
	if !strings.EqualFold(consent.PatientEmail, patient.Email) {
		return nil, apperrors.Forbidden("this consent request is not addressed to you", nil)
	}
	if err := s.repo.SetConsentPatient(ctx, consent.ID, patientID); err != nil {
		return nil, apperrors.Internal(err)
	}
	consent.PatientID = &patientID
	return consent, nil
}

func consentEvent(consentID, patientID uuid.UUID, status model.ConsentStatus) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"consent_request_id": consentID,
		"patient_id":         patientID,
		"status":             status,
	})
	if err != nil {
		return nil, err
	}
	return &model.OutboxEvent{
		EventType: model.EventConsentResponded,
		Payload:   payload,
	}, nil
}
