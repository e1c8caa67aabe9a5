package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	pkgauth "github.com/islandechoes/health-api/pkg/auth"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
)

type fakeProfileRepo struct {
	repository.ProfileRepository

	profiles map[uuid.UUID]*model.Profile
	updated  map[uuid.UUID]string
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[uuid.UUID]*model.Profile),
		updated:  make(map[uuid.UUID]string),
	}
}

func (f *fakeProfileRepo) Create(_ context.Context, p *model.Profile) error {
	p.ID = uuid.New()
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfileRepo) Get(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, assert.AnError
	}
	return p, nil
}

func (f *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, assert.AnError
}

func (f *fakeProfileRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	f.updated[id] = hash
	return nil
}

type fakeTokenRepo struct {
	repository.TokenRepository

	resetTokens map[string]uuid.UUID
	revoked     map[string]bool
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		resetTokens: make(map[string]uuid.UUID),
		revoked:     make(map[string]bool),
	}
}

func (f *fakeTokenRepo) StoreResetToken(_ context.Context, userID uuid.UUID, token string, _ time.Time) error {
	f.resetTokens[token] = userID
	return nil
}

func (f *fakeTokenRepo) ConsumeResetToken(_ context.Context, token string) (uuid.UUID, error) {
	userID, ok := f.resetTokens[token]
	if !ok {
		return uuid.Nil, assert.AnError
	}
	delete(f.resetTokens, token)
	return userID, nil
}

func (f *fakeTokenRepo) RevokeToken(_ context.Context, token string, _ time.Time) error {
	f.revoked[token] = true
	return nil
}

func (f *fakeTokenRepo) IsRevoked(_ context.Context, token string) (bool, error) {
	return f.revoked[token], nil
}

type fakeSponsorshipRepo struct {
	repository.SponsorshipRepository

	claimedEmails []string
}

func (f *fakeSponsorshipRepo) ClaimConsentsForEmail(_ context.Context, email string, _ uuid.UUID) (int64, error) {
	f.claimedEmails = append(f.claimedEmails, email)
	return 1, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return assert.AnError
	}
	return nil
}

type fakeEmailService struct {
	resetURLs []string
}

func (f *fakeEmailService) SendPasswordReset(to, resetURL string) error {
	f.resetURLs = append(f.resetURLs, resetURL)
	return nil
}

func (f *fakeEmailService) SendTemporaryCredentials(to, fullName, tempPassword, loginURL string) error {
	return nil
}

type fixture struct {
	svc      *Service
	profiles *fakeProfileRepo
	tokens   *fakeTokenRepo
	consents *fakeSponsorshipRepo
	mail     *fakeEmailService
}

func newFixture() *fixture {
	profiles := newFakeProfileRepo()
	tokens := newFakeTokenRepo()
	consents := &fakeSponsorshipRepo{}
	mail := &fakeEmailService{}
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Minute,
		RefreshExpiry: time.Hour,
	})
	svc := NewService(profiles, tokens, consents, jwtSvc, fakeHasher{}, mail, "https://portal.example.com", logger.NewLogger(nil))
	return &fixture{svc: svc, profiles: profiles, tokens: tokens, consents: consents, mail: mail}
}

func (fx *fixture) signup(t *testing.T, email string) (*model.Profile, *model.TokenResponse) {
	t.Helper()
	profile, tokens, err := fx.svc.Signup(context.Background(), &model.SignupRequest{
		Email:    email,
		Password: "sup3r-secret",
		FullName: "Maria Santos",
	})
	require.NoError(t, err)
	return profile, tokens
}

func TestSignupClaimsPendingConsents(t *testing.T) {
	fx := newFixture()

	profile, tokens := fx.signup(t, "Maria@Example.com ")
	assert.Equal(t, "maria@example.com", profile.Email)
	assert.Equal(t, model.RoleUser, profile.Role)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	assert.Equal(t, []string{"maria@example.com"}, fx.consents.claimedEmails)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	fx := newFixture()
	fx.signup(t, "maria@example.com")

	_, _, err := fx.svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "maria@example.com",
		Password: "another-secret",
		FullName: "Maria Santos",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestLoginFailureIsOpaque(t *testing.T) {
	fx := newFixture()
	fx.signup(t, "maria@example.com")

	_, _, errUnknown := fx.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "sup3r-secret",
	})
	_, _, errWrongPassword := fx.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "maria@example.com",
		Password: "wrong",
	})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPassword)
	// Same message whether the account exists or not.
	assert.Equal(t, errUnknown.Error(), errWrongPassword.Error())
	assert.True(t, apperrors.Is(errUnknown, apperrors.ErrUnauthorized))
}

func TestStaffLoginScreensRole(t *testing.T) {
	fx := newFixture()
	fx.signup(t, "maria@example.com")

	// Valid patient credentials never open the staff portal.
	_, _, err := fx.svc.LoginStaff(context.Background(), &model.LoginRequest{
		Email:    "maria@example.com",
		Password: "sup3r-secret",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	assert.Contains(t, err.Error(), "not authorized for the staff portal")

	clinician, _ := fx.signup(t, "dr.reyes@example.com")
	clinician.Role = model.RoleClinician

	profile, tokens, err := fx.svc.LoginStaff(context.Background(), &model.LoginRequest{
		Email:    "dr.reyes@example.com",
		Password: "sup3r-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleClinician, profile.Role)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestStaffLoginFailureIsOpaque(t *testing.T) {
	fx := newFixture()
	fx.signup(t, "maria@example.com")

	_, _, errUnknown := fx.svc.LoginStaff(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "sup3r-secret",
	})
	_, _, errWrongPassword := fx.svc.LoginStaff(context.Background(), &model.LoginRequest{
		Email:    "maria@example.com",
		Password: "wrong",
	})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPassword)
	assert.Equal(t, errUnknown.Error(), errWrongPassword.Error())
	assert.True(t, apperrors.Is(errUnknown, apperrors.ErrUnauthorized))
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	fx := newFixture()
	_, tokens := fx.signup(t, "maria@example.com")

	refreshed, err := fx.svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, fx.svc.Logout(context.Background(), tokens.RefreshToken))

	_, err = fx.svc.Refresh(context.Background(), tokens.RefreshToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	fx := newFixture()
	_, tokens := fx.signup(t, "maria@example.com")

	// Access and refresh tokens are signed with different secrets.
	_, err := fx.svc.Refresh(context.Background(), tokens.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestForgotPasswordIsSilentForUnknownEmail(t *testing.T) {
	fx := newFixture()

	err := fx.svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, fx.mail.resetURLs)
	assert.Empty(t, fx.tokens.resetTokens)
}

func TestResetPasswordConsumesToken(t *testing.T) {
	fx := newFixture()
	profile, _ := fx.signup(t, "maria@example.com")

	require.NoError(t, fx.svc.ForgotPassword(context.Background(), "maria@example.com"))
	require.Len(t, fx.mail.resetURLs, 1)

	resetURL := fx.mail.resetURLs[0]
	token := resetURL[strings.Index(resetURL, "token=")+len("token="):]

	require.NoError(t, fx.svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Token:       token,
		NewPassword: "new-sup3r-secret",
	}))
	assert.Equal(t, "hashed:new-sup3r-secret", fx.profiles.updated[profile.ID])

	// Tokens are single use.
	err := fx.svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Token:       token,
		NewPassword: "new-sup3r-secret",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
