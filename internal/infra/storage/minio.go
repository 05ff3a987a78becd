// Package storage archives generated reports in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
)

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// ReportArchive keeps every generated report as an immutable JSON object.
type ReportArchive struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// New buat koneksi MinIO dan pastikan bucket ada
func New(ctx context.Context, opts Options, log *zap.Logger) (*ReportArchive, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
		log.Info("archive bucket created", zap.String("bucket", opts.Bucket))
	}

	return &ReportArchive{client: cli, bucket: opts.Bucket, log: log}, nil
}

// ObjectKey is reports/<analysis id>/<generation time>.json.
func ObjectKey(id analysis.ID, at time.Time) string {
	return path.Join("reports", string(id), at.UTC().Format("20060102T150405.000000Z")+".json")
}

// Put uploads one report version and returns its object URL.
func (a *ReportArchive) Put(ctx context.Context, id analysis.ID, data json.RawMessage, at time.Time) (string, error) {
	key := ObjectKey(id, at)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"analysis-id": string(id),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	// URL publik kalau bucket public, kalau private pakai presigned URL
	return fmt.Sprintf("%s/%s/%s", a.client.EndpointURL().String(), a.bucket, key), nil
}

// Ping checks the bucket is reachable.
func (a *ReportArchive) Ping(ctx context.Context) error {
	ok, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", a.bucket)
	}
	return nil
}
