package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"

	"media-resolver/internal/assets"
	"media-resolver/internal/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used for downloads.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Downloader downloads asset originals from an S3 bucket.
type S3Downloader struct {
	client S3API
	bucket string
}

// NewS3Downloader creates a downloader for bucket using the default AWS
// credential chain (environment, shared config, instance role).
func NewS3Downloader(ctx context.Context, bucket string) (*S3Downloader, error) {
	if bucket == "" {
		return nil, errors.New("s3 backend requires a bucket")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	logging.Info("Cloud backend: s3://%s (region %s)", bucket, cfg.Region)
	return NewS3DownloaderWithClient(s3.NewFromConfig(cfg), bucket), nil
}

// NewS3DownloaderWithClient creates a downloader around an existing client.
func NewS3DownloaderWithClient(client S3API, bucket string) *S3Downloader {
	return &S3Downloader{client: client, bucket: bucket}
}

func (d *S3Downloader) Name() string {
	return BackendS3
}

func (d *S3Downloader) Download(ctx context.Context, key string, w io.Writer, onProgress assets.ProgressFunc) (int64, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("s3 get %s: %w", key, classifyS3Error(err))
	}
	defer func() {
		if cerr := out.Body.Close(); cerr != nil {
			logging.Warn("failed to close s3 body for %s: %v", key, cerr)
		}
	}()

	return copyWithProgress(ctx, w, out.Body, aws.ToInt64(out.ContentLength), d.Name(), onProgress)
}

// classifyS3Error maps S3 API errors onto the asset error sentinels, keeping
// the original error in the chain.
func classifyS3Error(err error) error {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %w", assets.ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%w: %w", assets.ErrNotFound, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return fmt.Errorf("%w: %w", assets.ErrPermission, err)
		}
	}
	return err
}
