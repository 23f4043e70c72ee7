package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/navshell/internal/errors"
)

// maxRemoteSize bounds a configuration object fetched from S3.
const maxRemoteSize = 1 << 20

// ObjectGetter is the part of the S3 client LoadS3 needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// IsS3URL reports whether location names an S3 object.
func IsS3URL(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3URL splits "s3://bucket/key" into bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(raw, "s3://")
	if !ok {
		return "", "", errors.New(errors.CodeConfigURL).
			WithDetail(fmt.Sprintf("%q is not an s3:// URL", raw))
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", errors.New(errors.CodeConfigURL).
			WithDetail(fmt.Sprintf("%q does not name an object", raw))
	}
	return bucket, key, nil
}

// LoadS3 fetches and parses a configuration object. The format follows the
// key's extension.
func LoadS3(ctx context.Context, client ObjectGetter, url string) (*Config, error) {
	bucket, key, err := ParseS3URL(url)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New(errors.CodeConfigFetch).
			WithDetail("Could not read " + url).
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxRemoteSize+1))
	if err != nil {
		return nil, errors.New(errors.CodeConfigFetch).Wrap(err)
	}
	if len(data) > maxRemoteSize {
		return nil, errors.New(errors.CodeConfigFetch).
			WithDetail(fmt.Sprintf("%s is larger than %d bytes", url, maxRemoteSize))
	}

	cfg, err := Parse(data, FormatFor(key))
	if err != nil {
		return nil, err
	}
	cfg.configPath = url
	return cfg, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	// Region is the bucket region. Defaults to $AWS_REGION, then us-east-1.
	Region string

	// Endpoint overrides the service endpoint, e.g. for MinIO.
	Endpoint string

	// PathStyle addresses buckets as path segments instead of subdomains.
	PathStyle bool
}

// NewS3Client creates an S3 client that reads static credentials from the
// standard AWS environment variables.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	return s3.New(s3.Options{
		Region:       region,
		Credentials:  aws.NewCredentialsCache(envCredentials()),
		UsePathStyle: opts.PathStyle,
		BaseEndpoint: optional(opts.Endpoint),
	})
}

// envCredentials reads AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN on every retrieval.
func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "navshell environment",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return creds, nil
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
