package export

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	sc "github.com/dmitrijs2005/tillkeeper/internal/server/config"
	"github.com/dmitrijs2005/tillkeeper/internal/server/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestStorageKey(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "orders/2025-06-01.json", StorageKey(day))
}

func TestRunUploadsClosedOrdersOfTheDay(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow("o1", []byte(`{"status":"closed","closed_at":"2025-06-01T20:15:00Z","total":31.5}`)).
		AddRow("o2", []byte(`{"status":"closed","closed_at":"2025-05-31T23:50:00Z","total":12.0}`))
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*data\s+FROM\s+documents`).
		WithArgs("orders").
		WillReturnRows(rows)

	cfg := &sc.Config{}
	cfg.LoadDefaults()
	e := NewExporter(documents.NewService(db), cfg, nil)

	// Seam overrides: no real AWS config or S3 endpoint involved.
	origClient, origPut := newS3ClientFromConfig, putObject
	t.Cleanup(func() { newS3ClientFromConfig, putObject = origClient, origPut })

	var gotKey string
	var gotBody []byte
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotKey = *in.Key
		gotBody, _ = io.ReadAll(in.Body)
		return &s3.PutObjectOutput{}, nil
	}

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.Run(context.Background(), day))

	assert.Equal(t, "orders/2025-06-01.json", gotKey)

	var archived []models.Record
	require.NoError(t, json.Unmarshal(gotBody, &archived))
	require.Len(t, archived, 1, "only the day's orders are archived")
	assert.Equal(t, "o1", archived[0].ID())
}

func TestRunSkipsUploadWhenNothingClosed(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*data\s+FROM\s+documents`).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}))

	cfg := &sc.Config{}
	cfg.LoadDefaults()
	e := NewExporter(documents.NewService(db), cfg, nil)

	origPut := putObject
	t.Cleanup(func() { putObject = origPut })
	called := false
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		called = true
		return &s3.PutObjectOutput{}, nil
	}

	require.NoError(t, e.Run(context.Background(), time.Now()))
	assert.False(t, called)
}
