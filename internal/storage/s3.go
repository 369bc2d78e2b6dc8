package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// uploader is the part of manager.Uploader the exporter needs.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Exporter copies finished results (archives, merged documents) to S3 so they
// outlive the session that produced them.
type Exporter struct {
	client     *s3.Client
	uploader   uploader
	bucketName string
	prefix     string
}

// Export describes one stored object.
type Export struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
	Size   int    `json:"size"`
}

// NewExporter creates an exporter for bucketName using the default AWS
// credential chain. Objects are written under prefix.
func NewExporter(ctx context.Context, bucketName, prefix string) (*Exporter, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg)
	return &Exporter{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
	}, nil
}

// Key returns the object key used for a file of a session.
func (e *Exporter) Key(sessionID, name string) string {
	return path.Join(e.prefix, sessionID, path.Base(name))
}

// Export uploads data under the session's key. The content digest is stored
// as object metadata.
func (e *Exporter) Export(ctx context.Context, sessionID, name, contentType string, data []byte, digest string) (*Export, error) {
	key := e.Key(sessionID, name)
	log.Debug().
		Str("bucket", e.bucketName).
		Str("key", key).
		Int("size", len(data)).
		Msg("Export: uploading")

	_, err := e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"name":       name,
			"session-id": sessionID,
			"digest":     digest,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Export: upload failed")
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Info().Str("key", key).Int("size", len(data)).Msg("Export: upload successful")
	return &Export{
		Bucket: e.bucketName,
		Key:    key,
		URL:    fmt.Sprintf("s3://%s/%s", e.bucketName, key),
		Size:   len(data),
	}, nil
}

// Ping checks that the bucket is reachable with the current credentials.
func (e *Exporter) Ping(ctx context.Context) error {
	_, err := e.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(e.bucketName)})
	return err
}
