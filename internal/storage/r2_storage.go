package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"tradebill/api/internal/config"
	"tradebill/api/internal/utils"
)

// ErrNotConfigured is returned when the R2 credentials or bucket settings
// required for an operation are absent. Surfaced to callers as an operator
// misconfiguration, not a client error.
var ErrNotConfigured = errors.New("object storage not configured")

// IObjectStorage defines the interface for invoice document storage.
type IObjectStorage interface {
	UploadPDF(ctx context.Context, pdfBytes []byte, invoiceID utils.SixID) (string, error)
	PublicURL(key string) (string, error)
}

// r2Storage implements IObjectStorage against Cloudflare R2 via the
// S3-compatible API.
type r2Storage struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewR2Storage creates a new R2 storage client. Construction never fails on
// missing credentials; operations report ErrNotConfigured instead, so the
// API can run without storage configured until a send is attempted.
func NewR2Storage(cfg *config.Config) IObjectStorage {
	return &r2Storage{cfg: cfg}
}

func (s *r2Storage) checkCredentials() error {
	if s.cfg.R2EndpointURL == "" || s.cfg.R2AccessKeyID == "" ||
		s.cfg.R2SecretAccessKey == "" || s.cfg.R2BucketName == "" {
		return fmt.Errorf("%w: R2 endpoint, credentials and bucket are required", ErrNotConfigured)
	}
	return nil
}

// client lazily initializes the S3 client pointed at the R2 endpoint.
func (s *r2Storage) client(ctx context.Context) (*s3.Client, error) {
	if s.s3Client != nil {
		return s.s3Client, nil
	}
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion("auto"), // R2 ignores the region but the SDK requires one
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.R2AccessKeyID,
			s.cfg.R2SecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2 client: %w", err)
	}

	s.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.R2EndpointURL)
	})
	return s.s3Client, nil
}

// GeneratePDFKey builds the object key for an invoice document:
// invoices/{invoice_id}/{timestamp}_{random_suffix}.pdf. The timestamp has
// second granularity; the 8-hex-char suffix (32 bits) keeps keys unique
// within a single invoice's history.
func GeneratePDFKey(invoiceID utils.SixID) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("invoices/%s/%s_%s.pdf", invoiceID.String(), timestamp, suffix)
}

// UploadPDF stores the rendered document under a fresh key and returns the key.
func (s *r2Storage) UploadPDF(ctx context.Context, pdfBytes []byte, invoiceID utils.SixID) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	key := GeneratePDFKey(invoiceID)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.R2BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdfBytes),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload invoice PDF to R2 (key %s): %w", key, err)
	}

	return key, nil
}

// PublicURL derives the dereferenceable URL for a stored object from
// configuration alone; it performs no network calls.
func (s *r2Storage) PublicURL(key string) (string, error) {
	if s.cfg.R2PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.R2PublicBaseURL, "/") + "/" + key, nil
	}
	if s.cfg.R2EndpointURL == "" || s.cfg.R2BucketName == "" {
		return "", fmt.Errorf("%w: R2 endpoint and bucket are required to derive public URLs", ErrNotConfigured)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.R2EndpointURL, "/"), s.cfg.R2BucketName, key), nil
}
