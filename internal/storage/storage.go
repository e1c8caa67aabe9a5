package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/islandechoes/health-api/internal/config"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
)

const (
	MaxLicenseSize = 5 << 20
	MaxAvatarSize  = 2 << 20
)

var licenseContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

var avatarContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader stores license documents and avatars in object storage and
// returns the key or public URL the caller persists.
type Uploader interface {
	UploadLicense(ctx context.Context, data []byte, contentType, filename string) (string, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
}

type s3Uploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewS3Uploader(ctx context.Context, cfg appconfig.StorageConfig) (Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Uploader{
		client:        s3.NewFromConfig(awsCfg),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// validateUpload rejects before any bytes reach the bucket.
func validateUpload(data []byte, contentType string, maxSize int, allowed map[string]string) (string, error) {
	if len(data) == 0 {
		return "", apperrors.BadRequest("file is empty", nil)
	}
	if len(data) > maxSize {
		return "", apperrors.BadRequest(fmt.Sprintf("file exceeds %d MB limit", maxSize>>20), nil)
	}
	ext, ok := allowed[strings.ToLower(contentType)]
	if !ok {
		return "", apperrors.BadRequest(fmt.Sprintf("unsupported file type %q", contentType), nil)
	}
	return ext, nil
}

func (u *s3Uploader) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// sanitizeFilename strips any path component and reduces the name to
// characters safe in an object key. Runs of unsafe characters collapse to a
// single dash.
func sanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	ext := path.Ext(name)
	stem := safeKeyPart(name[:len(name)-len(ext)])
	ext = safeKeyPart(ext)
	if stem == "" && ext == "" {
		return ""
	}
	if ext != "" {
		return stem + "." + ext
	}
	return stem
}

func safeKeyPart(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// licenseKey keeps the uploader's original filename in the stored key so
// reviewers see what was submitted. The uuid prefix keeps keys unique.
func licenseKey(filename, ext string) string {
	if name := sanitizeFilename(filename); name != "" {
		return path.Join("licenses", uuid.New().String()+"-"+name)
	}
	return path.Join("licenses", uuid.New().String()+ext)
}

func (u *s3Uploader) UploadLicense(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	ext, err := validateUpload(data, contentType, MaxLicenseSize, licenseContentTypes)
	if err != nil {
		return "", err
	}

	key := licenseKey(filename, ext)
	if err := u.put(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (u *s3Uploader) UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	ext, err := validateUpload(data, contentType, MaxAvatarSize, avatarContentTypes)
	if err != nil {
		return "", err
	}

	key := path.Join("avatars", userID.String()+ext)
	if err := u.put(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return u.publicBaseURL + "/" + key, nil
}
