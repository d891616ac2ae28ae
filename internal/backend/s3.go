/*
Copyright The ORAS Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/armar-oci/armar/internal/errdef"
)

// S3Config carries the storage.s3 configuration keys from the YAML file.
type S3Config struct {
	URL       string `yaml:"url"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Configured reports whether every field required to build a working S3
// backend is set. When it returns false, the caller degrades the primary
// tier to the cache (local filesystem) backend, per spec.
func (c S3Config) Configured() bool {
	return c.URL != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// S3 is an S3-compatible object-storage Backend. It is used as the durable
// primary tier when storage.s3 is fully configured.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3 backend from cfg. The endpoint is treated as a custom,
// path-style endpoint so that S3-compatible targets (MinIO and similar) work
// without further configuration.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("s3 backend: %w", errors.New("incomplete storage.s3 configuration"))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.URL)
		o.UsePathStyle = true
	})

	return &S3{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3) Read(ctx context.Context, p string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", p, errdef.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", p, errdef.ErrBackend)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", p, errdef.ErrBackend)
	}
	return data, nil
}

func (s *S3) Write(ctx context.Context, p string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", p, errdef.ErrBackend)
	}
	return nil
}

// Append has no native S3 counterpart; it is implemented as get-then-put.
// This is non-atomic under concurrent writers, which is acceptable here
// because the upload state machine only ever appends to the cache
// (filesystem) tier, never to the primary tier this backend serves.
func (s *S3) Append(ctx context.Context, p string, data []byte) error {
	existing, err := s.Read(ctx, p)
	if err != nil {
		return err
	}
	return s.Write(ctx, p, append(existing, data...))
}

func (s *S3) Stat(ctx context.Context, p string) (Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
	})
	if err != nil {
		if isNotFound(err) {
			return Info{}, fmt.Errorf("%s: %w", p, errdef.ErrNotFound)
		}
		return Info{}, fmt.Errorf("head %s: %w", p, errdef.ErrBackend)
	}
	length := int64(0)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}
	return Info{Length: length}, nil
}

// Delete removes the object at p. S3's DeleteObject is idempotent and does
// not itself report a missing key, so existence is checked with a HeadObject
// first to honor the NotFound contract the backend interface requires.
func (s *S3) Delete(ctx context.Context, p string) error {
	if _, err := s.Stat(ctx, p); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", p, errdef.ErrBackend)
	}
	return nil
}

func isNotFound(err error) bool {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode() == 404
	}
	return false
}
