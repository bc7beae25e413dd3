// Package s3 implements an asset Store on an S3 / MinIO compatible bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"diagramcore/internal/assets/core"
)

// Store maps asset keys to object keys in a single bucket, optionally under
// a key prefix so one bucket can host several deployments.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// Config holds explicit construction parameters. Credentials are optional;
// when absent the default AWS chain applies.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string // object key prefix, no trailing slash required
	Endpoint        string // optional custom endpoint (e.g. MinIO)
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// Environment variables consumed by OpenFromEnv:
//
//	DIAGRAMCORE_ASSET_S3_BUCKET=<bucket> (required)
//	DIAGRAMCORE_ASSET_S3_REGION=<region> (default us-east-1)
//	DIAGRAMCORE_ASSET_S3_PREFIX=<key prefix> (optional)
//	DIAGRAMCORE_ASSET_S3_ENDPOINT=<url> (optional, for MinIO)
//	DIAGRAMCORE_ASSET_S3_ACCESS_KEY_ID / _SECRET_ACCESS_KEY / _SESSION_TOKEN (optional)
//	DIAGRAMCORE_ASSET_S3_PATH_STYLE=true|false (default false)

// New creates an S3 asset store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// OpenFromEnv constructs an S3 asset store from process environment.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("DIAGRAMCORE_ASSET_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("DIAGRAMCORE_ASSET_S3_BUCKET required for s3 driver")
	}
	cfg := Config{
		Bucket:          bucket,
		Region:          os.Getenv("DIAGRAMCORE_ASSET_S3_REGION"),
		Prefix:          os.Getenv("DIAGRAMCORE_ASSET_S3_PREFIX"),
		Endpoint:        os.Getenv("DIAGRAMCORE_ASSET_S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("DIAGRAMCORE_ASSET_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("DIAGRAMCORE_ASSET_S3_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("DIAGRAMCORE_ASSET_S3_SESSION_TOKEN"),
		PathStyle:       strings.EqualFold(os.Getenv("DIAGRAMCORE_ASSET_S3_PATH_STYLE"), "true"),
	}
	return New(ctx, cfg)
}

// Driver returns the asset driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverS3 }

// objectKey maps an asset key to its bucket object key.
func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// assetKey maps a bucket object key back to the asset key.
func (s *Store) assetKey(objKey string) string {
	if s.prefix == "" {
		return objKey
	}
	return strings.TrimPrefix(objKey, s.prefix+"/")
}

// Put uploads a new asset. S3 has no native create-only write, so existence
// is checked with a Head first; a concurrent writer can still win the race.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	objKey := s.objectKey(key)
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &objKey}); err == nil {
		return core.Info{}, fmt.Errorf("asset %s already exists", key)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &objKey, Body: r}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return core.Info{}, err
	}
	return s.Head(ctx, key)
}

// Get downloads the asset body along with its metadata.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	objKey := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey})
	if err != nil {
		return core.Info{}, nil, err
	}
	info := s.infoFrom(key, aws.ToInt64(out.ContentLength), out.ContentType, out.ETag, out.Metadata, out.LastModified)
	return info, out.Body, nil
}

// Head fetches asset metadata without the body.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	objKey := s.objectKey(key)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &objKey})
	if err != nil {
		return core.Info{}, err
	}
	return s.infoFrom(key, aws.ToInt64(out.ContentLength), out.ContentType, out.ETag, out.Metadata, out.LastModified), nil
}

// Delete removes the object. S3 deletes are idempotent, so this reports
// true whenever the call succeeds.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	objKey := s.objectKey(key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &objKey}); err != nil {
		return false, err
	}
	return true, nil
}

// List pages through the bucket collecting objects under prefix, sorted by
// asset key.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	objPrefix := s.objectKey(prefix)
	var infos []core.Info
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &objPrefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			infos = append(infos, core.Info{
				Key:          s.assetKey(aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				CreatedAt:    aws.ToTime(obj.LastModified),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL signs a GET for the asset; other methods are unsupported.
func (s *Store) PresignURL(ctx context.Context, key string, opts core.SignedURLOptions) (string, error) {
	method := strings.ToUpper(opts.Method)
	if method != "" && method != "GET" {
		return "", core.ErrUnsupported
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	objKey := s.objectKey(key)
	out, err := s.presign.PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey},
		func(po *s3.PresignOptions) { po.Expires = expiry })
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// infoFrom assembles an Info from S3 response fields. Object stores report
// a single modification time, so CreatedAt mirrors LastModified.
func (s *Store) infoFrom(key string, size int64, contentType, etag *string, md map[string]string, lastModified *time.Time) core.Info {
	lm := time.Now().UTC()
	if lastModified != nil {
		lm = *lastModified
	}
	return core.Info{
		Key:          key,
		Size:         size,
		ContentType:  aws.ToString(contentType),
		ETag:         strings.Trim(aws.ToString(etag), "\""),
		Metadata:     md,
		CreatedAt:    lm,
		LastModified: lm,
	}
}
