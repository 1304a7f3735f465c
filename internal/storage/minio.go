package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var minioTracer = otel.Tracer("resume-match-go/storage/minio")

// MinIO archives uploaded resumes and serves corpus CSV objects. Archival
// is best effort: the service promises no durability beyond what the bucket
// provides.
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	logger zerolog.Logger
}

// NewMinIO connects and makes sure the resume and corpus buckets exist.
// Uploaded originals expire via a bucket lifecycle rule.
func NewMinIO(cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("minio config is nil")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	m := &MinIO{client: client, cfg: cfg, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, bucket := range []string{cfg.ResumeBucket, cfg.CorpusBucket} {
		if bucket == "" {
			continue
		}
		if err := m.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}
	if cfg.ResumeExpireDays > 0 && cfg.ResumeBucket != "" {
		if err := m.setBucketExpiry(ctx, cfg.ResumeBucket, cfg.ResumeExpireDays); err != nil {
			// Lifecycle support varies between deployments; archival still works.
			logger.Warn().Err(err).Str("bucket", cfg.ResumeBucket).Msg("could not set bucket lifecycle")
		}
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Msg("minio connected")
	return m, nil
}

func (m *MinIO) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	err = m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.cfg.Location})
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	m.logger.Info().Str("bucket", bucket).Msg("bucket created")
	return nil
}

func (m *MinIO) setBucketExpiry(ctx context.Context, bucket string, days int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{{
		ID:         "expire-archived-resumes",
		Status:     "Enabled",
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
	}}
	return m.client.SetBucketLifecycle(ctx, bucket, lc)
}

// ResumeObjectKey builds the canonical object key for an archived upload.
func ResumeObjectKey(analysisID string, format types.DocumentFormat) string {
	return fmt.Sprintf("resumes/%s%s", analysisID, formatExtension(format))
}

func formatExtension(format types.DocumentFormat) string {
	switch format {
	case types.FormatPDF:
		return ".pdf"
	case types.FormatDOCX:
		return ".docx"
	default:
		return ".bin"
	}
}

func formatContentType(format types.DocumentFormat) string {
	switch format {
	case types.FormatPDF:
		return constants.PDFContentType
	case types.FormatDOCX:
		return constants.DOCXContentType
	default:
		return "application/octet-stream"
	}
}

// ArchiveResume stores the original upload under its analysis id and
// returns the object key.
func (m *MinIO) ArchiveResume(ctx context.Context, analysisID string, doc types.Document) (string, error) {
	objectKey := ResumeObjectKey(analysisID, doc.Format)
	ctx, span := minioTracer.Start(ctx, "ArchiveResume",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("object.key", tracing.SafeObjectKey(objectKey)),
			attribute.Int64("object.size", doc.Size()),
		))
	defer span.End()

	_, err := m.client.PutObject(ctx, m.cfg.ResumeBucket, objectKey,
		bytes.NewReader(doc.Data), doc.Size(),
		minio.PutObjectOptions{ContentType: formatContentType(doc.Format)})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return "", fmt.Errorf("archive resume %s: %w", objectKey, err)
	}
	return objectKey, nil
}

// FetchResume retrieves an archived upload for async analysis.
func (m *MinIO) FetchResume(ctx context.Context, objectKey string) ([]byte, error) {
	ctx, span := minioTracer.Start(ctx, "FetchResume",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("object.key", tracing.SafeObjectKey(objectKey))))
	defer span.End()

	obj, err := m.client.GetObject(ctx, m.cfg.ResumeBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return nil, fmt.Errorf("fetch resume %s: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return nil, fmt.Errorf("read resume %s: %w", objectKey, err)
	}
	span.SetAttributes(attribute.Int("object.size", len(data)))
	return data, nil
}

// DeleteResume removes an archived upload.
func (m *MinIO) DeleteResume(ctx context.Context, objectKey string) error {
	err := m.client.RemoveObject(ctx, m.cfg.ResumeBucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("delete resume %s: %w", objectKey, err)
	}
	return nil
}

// FetchCorpusObject downloads a corpus CSV/JSON object for startup loading.
func (m *MinIO) FetchCorpusObject(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	bucket := m.cfg.CorpusBucket
	if bucket == "" {
		return nil, fmt.Errorf("corpus bucket not configured")
	}
	obj, err := m.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch corpus object %s: %w", objectKey, err)
	}
	// GetObject is lazy; surface missing objects now, at startup.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat corpus object %s: %w", objectKey, err)
	}
	return obj, nil
}
