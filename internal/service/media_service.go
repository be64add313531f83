package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"taleweave/internal/assethost"
	"taleweave/internal/middleware"
	"taleweave/internal/models"

	"github.com/google/uuid"
)

// MaxUploadSizeBytes is the hard cap on uploaded image payloads.
const MaxUploadSizeBytes = 5 * 1024 * 1024

// Media folders on the asset host.
const (
	FolderAvatars = "avatars"
	FolderStories = "stories"
)

const localAssetPrefix = "local:"

var allowedImageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// AssetPublisher is the subset of the asset-host client the media pipeline
// needs. Satisfied by *assethost.Client.
type AssetPublisher interface {
	Upload(ctx context.Context, dataURI, folder string) (*assethost.Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

// MediaService validates uploaded images and publishes them either to the
// asset host or, in local mode, to the uploads directory served at /uploads.
type MediaService struct {
	host      AssetPublisher
	uploadDir string
}

// NewMediaService builds the media pipeline. A nil host enables local mode.
func NewMediaService(host AssetPublisher, uploadDir string) *MediaService {
	return &MediaService{host: host, uploadDir: uploadDir}
}

// Ingest validates the payload and converts it into a self-describing
// data-URI suitable for forwarding to the asset host.
func (s *MediaService) Ingest(content []byte, declaredType string) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if len(content) > MaxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxUploadSizeBytes/(1024*1024)))
	}

	mimeType := normalizeMIME(declaredType)
	if _, ok := allowedImageExtensions[mimeType]; !ok {
		return "", models.NewValidationError("Only JPEG, PNG, and GIF images are allowed")
	}
	// The declared type is advisory; sniff the actual bytes too.
	detected := normalizeMIME(http.DetectContentType(content))
	if _, ok := allowedImageExtensions[detected]; !ok {
		return "", models.NewValidationError("Only JPEG, PNG, and GIF images are allowed")
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	return fmt.Sprintf("data:%s;base64,%s", detected, encoded), nil
}

// Publish runs the full pipeline: validate, encode, and publish into the
// given folder. It returns the public URL and the opaque asset identifier
// used for later retirement.
func (s *MediaService) Publish(ctx context.Context, content []byte, declaredType, folder string) (string, string, error) {
	dataURI, err := s.Ingest(content, declaredType)
	if err != nil {
		return "", "", err
	}

	if s.host == nil {
		return s.publishLocal(content, folder)
	}

	asset, err := s.host.Upload(ctx, dataURI, folder)
	if err != nil {
		return "", "", models.NewUpstreamError("Image upload failed", err)
	}
	return asset.SecureURL, asset.PublicID, nil
}

// publishLocal writes the payload under the uploads directory and returns a
// path-relative URL served by the static /uploads route.
func (s *MediaService) publishLocal(content []byte, folder string) (string, string, error) {
	ext := allowedImageExtensions[normalizeMIME(http.DetectContentType(content))]
	name := uuid.New().String() + ext
	dir := filepath.Join(s.uploadDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", models.NewInternalError(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		return "", "", models.NewInternalError(err)
	}

	rel := filepath.ToSlash(filepath.Join(folder, name))
	return "/uploads/" + rel, localAssetPrefix + rel, nil
}

// Retire deletes a previously published asset. Deletion is best-effort:
// failures are logged and never propagated, since no user-facing operation
// depends on it.
func (s *MediaService) Retire(ctx context.Context, assetID string) {
	if assetID == "" {
		return
	}

	var err error
	if rel, ok := strings.CutPrefix(assetID, localAssetPrefix); ok {
		err = os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(rel)))
	} else if s.host != nil {
		err = s.host.Destroy(ctx, assetID)
	}

	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to retire asset",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}

func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "image/jpg" {
		mimeType = "image/jpeg"
	}
	return mimeType
}
