// Package export archives each business day's closed orders to
// S3-compatible object storage (MinIO in the default deployment).
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	sc "github.com/dmitrijs2005/tillkeeper/internal/server/config"
	"github.com/dmitrijs2005/tillkeeper/internal/server/documents"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// Exporter uploads end-of-day order archives.
type Exporter struct {
	documents *documents.Service
	config    *sc.Config
	log       logging.Logger
}

func NewExporter(docs *documents.Service, cfg *sc.Config, log logging.Logger) *Exporter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Exporter{documents: docs, config: cfg, log: log}
}

func (e *Exporter) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(e.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,     // MINIO_ROOT_USER
			e.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// StorageKey names the archive object for a business day.
func StorageKey(day time.Time) string {
	return fmt.Sprintf("orders/%s.json", day.Format("2006-01-02"))
}

// Run archives the closed orders of the given business day. A day with no
// closed orders uploads nothing and is not an error.
func (e *Exporter) Run(ctx context.Context, day time.Time) error {
	q := models.Query{
		Conditions: []models.Condition{{Field: "status", Op: models.OpEq, Value: "closed"}},
		OrderBy:    &models.Order{Field: "closed_at"},
	}
	orders, err := e.documents.GetCollection(ctx, "orders", q)
	if err != nil {
		return fmt.Errorf("fetching closed orders: %w", err)
	}

	dayKey := day.Format("2006-01-02")
	archive := make([]models.Record, 0, len(orders))
	for _, o := range orders {
		closedAt, _ := o["closed_at"].(string)
		if len(closedAt) >= len(dayKey) && closedAt[:len(dayKey)] == dayKey {
			archive = append(archive, o)
		}
	}

	if len(archive) == 0 {
		e.log.Info(ctx, "no closed orders to archive", "day", dayKey)
		return nil
	}

	data, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("archive encode error: %w", err)
	}

	client, err := e.getS3Client()
	if err != nil {
		return fmt.Errorf("s3 client error: %w", err)
	}

	key := StorageKey(day)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive upload error: %w", err)
	}

	e.log.Info(ctx, "orders archived", "day", dayKey, "orders", len(archive), "key", key)
	return nil
}
