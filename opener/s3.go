package opener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of *s3.Client used by S3 openers.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config describes how to reach S3 or an S3-compatible service.
type S3Config struct {
	Region         string `env:"REGION"`
	AccessKeyID    string `env:"ACCESS_KEY_ID"`
	SecretKey      string `env:"SECRET_KEY"`
	Endpoint       string `env:"ENDPOINT"` // optional, e.g. a MinIO URL
	ForcePathStyle bool   `env:"PATH_STYLE" envDefault:"false"`
}

// NewS3Client builds an *s3.Client from cfg. Without explicit keys the
// default AWS credential chain is used.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// S3Object opens a single object.
type S3Object struct {
	Client S3Client
	Bucket string
	Key    string
}

// Open issues a GetObject; the caller closes the returned body.
func (o S3Object) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := o.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(o.Key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("get %s: %s: %w", o.Name(), apiErr.ErrorCode(), err)
		}
		return nil, fmt.Errorf("get %s: %w", o.Name(), err)
	}
	return out.Body, nil
}

// Name returns the s3:// URL of the object.
func (o S3Object) Name() string {
	return "s3://" + o.Bucket + "/" + o.Key
}

// NewS3OpenerFactory returns a Factory for s3:// specifications.
//
// A plain key yields one opener without contacting S3. A key holding glob
// characters (*, ?, [) lists the bucket under the literal prefix before the
// first glob character and keeps the keys matching the pattern, sorted:
//
//	s3://bucket/exports/2013-11-*.csv
func NewS3OpenerFactory(ctx context.Context, client S3Client) Factory {
	return func(spec string) ([]Opener, error) {
		bucket, key, err := parseS3Spec(spec)
		if err != nil {
			return nil, err
		}
		idx := strings.IndexAny(key, "*?[")
		if idx < 0 {
			return []Opener{S3Object{Client: client, Bucket: bucket, Key: key}}, nil
		}
		if _, err := path.Match(key, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", key, err)
		}

		var keys []string
		pager := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
			Prefix: aws.String(key[:idx]),
		})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, key[:idx], err)
			}
			for _, obj := range page.Contents {
				k := aws.ToString(obj.Key)
				if ok, _ := path.Match(key, k); ok {
					keys = append(keys, k)
				}
			}
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("no objects matched: %q", spec)
		}
		sort.Strings(keys)
		ops := make([]Opener, len(keys))
		for i, k := range keys {
			ops[i] = S3Object{Client: client, Bucket: bucket, Key: k}
		}
		return ops, nil
	}
}

func parseS3Spec(spec string) (bucket, key string, err error) {
	u, err := url.Parse(strings.TrimSpace(spec))
	if err != nil {
		return "", "", err
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("not an s3 URL: %q", spec)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URL needs bucket and key: %q", spec)
	}
	return bucket, key, nil
}
