package storage

import (
	"context"
	"time"
)

// PresignedUpload — одноразовый URL для прямой загрузки файла клиентом.
type PresignedUpload struct {
	Key       string
	URL       string
	ExpiresIn time.Duration
}

type FileUploader interface {
	// PresignPut выдаёт подписанный PUT, чтобы клиент грузил аудио напрямую
	// в хранилище, минуя сервер.
	PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (*PresignedUpload, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
