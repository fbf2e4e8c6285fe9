package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/sentinela-corte/internal/config"
)

const (
	BackendNone  = "none"
	BackendS3    = "s3"
	BackendDrive = "drive"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ObjectStorage captures the archive operations a dispatch needs.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte) error
}

// ArchiveKey places an attachment under corte/<yyyy>/<mm>/.
func ArchiveKey(now time.Time, name string) string {
	return fmt.Sprintf("corte/%04d/%02d/%s", now.Year(), int(now.Month()), name)
}

// New builds the configured archive backend. It returns nil when archiving
// is disabled.
func New(ctx context.Context, cfg config.ArchiveConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendS3:
		c, err := NewMinioClient(MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendDrive:
		c, err := NewDriveClient(ctx, cfg.CredentialsJSON, cfg.DriveFolderPath)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
