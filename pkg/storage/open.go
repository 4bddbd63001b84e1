package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// OpenOptions configures Open.
type OpenOptions struct {
	// HTTPClient is used by http(s) stores. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// S3Endpoint overrides the S3 endpoint for S3-compatible services.
	S3Endpoint string

	// S3Region overrides the region from the AWS environment.
	S3Region string
}

// Open returns the FileStore for a location:
//
//	/abs/dir, rel/dir, file:///abs/dir   local filesystem
//	http://host/base, https://host/base  read-only HTTP
//	s3://bucket/prefix                   S3 (credentials from the AWS environment)
func Open(ctx context.Context, location string, opts *OpenOptions) (FileStore, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return NewLocal(location)
	}
	switch scheme {
	case "file":
		return NewLocal(rest)
	case "http", "https":
		return NewHTTP(location, opts.HTTPClient)
	case "s3":
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("storage: %q has no bucket", location)
		}
		client, err := newS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewS3(client, bucket, strings.Trim(prefix, "/")), nil
	default:
		return nil, fmt.Errorf("storage: unsupported location %q", location)
	}
}

// OpenFile splits a file location into the store holding it and the path of
// the file inside that store.
func OpenFile(ctx context.Context, location string, opts *OpenOptions) (FileStore, string, error) {
	dir, name := splitLocation(location)
	if name == "" {
		return nil, "", fmt.Errorf("storage: %q does not name a file", location)
	}
	fs, err := Open(ctx, dir, opts)
	if err != nil {
		return nil, "", err
	}
	return fs, name, nil
}

func splitLocation(location string) (dir, name string) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		d, n := path.Split(location)
		if d == "" {
			d = "."
		}
		return d, n
	}
	if scheme == "http" || scheme == "https" {
		u, err := url.Parse(location)
		if err != nil {
			return location, ""
		}
		d, n := path.Split(u.Path)
		u.Path = d
		return u.String(), n
	}
	d, n := path.Split(rest)
	return scheme + "://" + d, n
}

func newS3Client(ctx context.Context, opts *OpenOptions) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.S3Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.S3Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
