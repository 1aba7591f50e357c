package export

import (
	"bytes"
	"context"
	"fmt"
	"landing-bot/internal/config"
	"landing-bot/internal/models"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveSink складывает ежедневный CSV в S3-совместимое хранилище.
type ArchiveSink struct {
	client *minio.Client
	bucket string
	loc    *time.Location
	now    func() time.Time
}

// NewArchiveSink: без endpoint или bucket возвращает ErrNotConfigured.
func NewArchiveSink(cfg config.Archive, loc *time.Location) (*ArchiveSink, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}

	return &ArchiveSink{
		client: client,
		bucket: cfg.Bucket,
		loc:    loc,
		now:    time.Now,
	}, nil
}

// EnsureBucket создает бакет, если его еще нет.
func (s *ArchiveSink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *ArchiveSink) Name() string { return "archive" }

// Append загружает CSV за день; повторная выгрузка в тот же день перезаписывает объект.
func (s *ArchiveSink) Append(ctx context.Context, rows []models.ExportRow) error {
	if len(rows) == 0 {
		return nil
	}

	data, err := BuildCSV(rows, s.loc)
	if err != nil {
		return err
	}

	key := ArchiveKey(s.now().In(s.loc))
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/csv; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// ArchiveKey: ключ объекта для выгрузки за день.
func ArchiveKey(day time.Time) string {
	return "orders/" + day.Format("2006-01-02") + ".csv"
}
