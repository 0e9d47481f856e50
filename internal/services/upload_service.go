package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"dinerhub/internal/common"

	"github.com/google/uuid"
)

// MaxUploadSize caps a single image upload.
const MaxUploadSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadService stores images and hands back their public URL.
type UploadService interface {
	UploadImage(ctx context.Context, folder, contentType string, reader io.Reader, size int64) (string, error)
	Delete(ctx context.Context, url string) error
}

type uploadService struct {
	store     ObjectStore
	publicURL string
	logger    *slog.Logger
}

func NewUploadService(store ObjectStore, publicURL string, logger *slog.Logger) UploadService {
	return &uploadService{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

var uploadFolders = map[string]bool{"dishes": true, "categories": true, "avatars": true, "misc": true}

func (s *uploadService) UploadImage(ctx context.Context, folder, contentType string, reader io.Reader, size int64) (string, error) {
	if folder == "" {
		folder = "misc"
	}
	if !uploadFolders[folder] {
		return "", common.NewValidationError("folder", "unknown upload folder")
	}
	contentType = strings.ToLower(contentType)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", common.NewValidationError("file", "only jpeg, png, webp and gif images are accepted")
	}
	if size <= 0 || size > MaxUploadSize {
		return "", common.NewValidationError("file", fmt.Sprintf("size must be between 1 byte and %d bytes", MaxUploadSize))
	}

	objectName := path.Join(folder, uuid.NewString()+ext)
	if err := s.store.PutObject(ctx, objectName, reader, size, contentType); err != nil {
		return "", fmt.Errorf("failed to upload image to storage: %w", err)
	}
	s.logger.Info("image uploaded", "object", objectName, "size", size)
	return s.publicURL + "/" + objectName, nil
}

func (s *uploadService) Delete(ctx context.Context, url string) error {
	objectName, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok || objectName == "" {
		return common.NewValidationError("url", "not a stored object")
	}
	return s.store.RemoveObject(ctx, objectName)
}
