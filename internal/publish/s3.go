package publish

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"

	"ontoforge/internal/artifact"
	"ontoforge/internal/config"
	"ontoforge/internal/logging"
)

// Uploader is the subset of the S3 client used for publishing.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a client from the publish settings. Static credentials
// are used when an access key is configured; otherwise the default AWS
// credential chain applies.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Publisher uploads the artifact directory to a bucket.
type Publisher struct {
	client Uploader
	bucket string
	prefix string
	logger *log.Logger
}

func NewPublisher(client Uploader, bucket, prefix string, logger *log.Logger) *Publisher {
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logging.OrDefault(logger),
	}
}

// Key returns the object key for an artifact path relative to the store.
func (p *Publisher) Key(rel string) string {
	if p.prefix == "" {
		return rel
	}
	return path.Join(p.prefix, rel)
}

// Publish uploads every file in the store. It stops at the first failed
// upload and returns the keys written so far.
func (p *Publisher) Publish(ctx context.Context, store *artifact.Store) ([]string, error) {
	files, err := store.List()
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return keys, err
		}

		data, err := os.ReadFile(store.Path(rel))
		if err != nil {
			return keys, fmt.Errorf("failed to read %s: %w", rel, err)
		}

		key := p.Key(rel)
		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(rel)),
		})
		if err != nil {
			return keys, fmt.Errorf("failed to upload %s to s3://%s/%s: %w", rel, p.bucket, key, err)
		}
		p.logger.Debug("uploaded artifact", "key", key, "bytes", len(data))
		keys = append(keys, key)
	}

	p.logger.Info("published artifacts", "bucket", p.bucket, "count", len(keys))
	return keys, nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".json":
		return "application/json"
	case ".prom":
		return "text/plain; version=0.0.4"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
