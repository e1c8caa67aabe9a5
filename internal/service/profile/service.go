package profile

import (
	"context"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/internal/storage"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
)

type Service struct {
	repo     repository.ProfileRepository
	uploader storage.Uploader
}

func NewService(repo repository.ProfileRepository, uploader storage.Uploader) *Service {
	return &Service{repo: repo, uploader: uploader}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}

	if req.FullName != nil {
		profile.FullName = req.FullName
	}
	if req.DateOfBirth != nil {
		profile.DateOfBirth = req.DateOfBirth
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, apperrors.Internal(err)
	}
	return profile, nil
}

// UploadAvatar validates, stores, and persists the new avatar URL.
func (s *Service) UploadAvatar(ctx context.Context, id uuid.UUID, data []byte, contentType string) (string, error) {
	url, err := s.uploader.UploadAvatar(ctx, id, data, contentType)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateAvatarURL(ctx, id, url); err != nil {
		return "", apperrors.Internal(err)
	}
	return url, nil
}
