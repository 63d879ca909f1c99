package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/flowclash/battle-system/storage"
	"github.com/google/uuid"
)

const presignedUploadTTL = 15 * time.Minute

// MediaKind ограничивает допустимые типы загрузок.
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindImage MediaKind = "image"
)

type PresignedUploadResponse struct {
	AssetID   uuid.UUID `json:"asset_id"`
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresIn int       `json:"expires_in_seconds"`
}

type MediaService interface {
	// CreatePresignedUpload выдаёт клиенту подписанный PUT для прямой
	// загрузки файла; сам сервер байты не принимает.
	CreatePresignedUpload(ctx context.Context, filename, mime string, kind MediaKind) (*PresignedUploadResponse, error)
}

type mediaService struct {
	uploader storage.FileUploader
}

func NewMediaService(uploader storage.FileUploader) MediaService {
	return &mediaService{uploader: uploader}
}

func (s *mediaService) CreatePresignedUpload(ctx context.Context, filename, mime string, kind MediaKind) (*PresignedUploadResponse, error) {
	if filename == "" || mime == "" {
		return nil, fmt.Errorf("%w: filename and mime are required", ErrValidationFailed)
	}
	if kind != MediaKindAudio && kind != MediaKindImage {
		return nil, fmt.Errorf("%w: unknown media kind %q", ErrValidationFailed, kind)
	}

	assetID := uuid.New()
	key := fmt.Sprintf("%s/%s/%s", kind, assetID, url.PathEscape(filename))

	presigned, err := s.uploader.PresignPut(ctx, key, mime, presignedUploadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create presigned upload: %w", err)
	}

	return &PresignedUploadResponse{
		AssetID:   assetID,
		Key:       presigned.Key,
		UploadURL: presigned.URL,
		PublicURL: s.uploader.GetPublicURL(key),
		ExpiresIn: int(presigned.ExpiresIn.Seconds()),
	}, nil
}
