/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/keyreg-io/keyreg/pkg/metrics"
)

// s3API is the slice of the S3 client the store uses
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the location of the registry object in S3
type S3Config struct {
	Bucket string
	Key    string
	Region string
	// Endpoint overrides the S3 endpoint for S3-compatible stores
	// (MinIO, localstack). Path-style addressing is used when set.
	Endpoint string
}

// S3Store stores the registry object in an S3 bucket
type S3Store struct {
	client s3API
	bucket string
	key    string
	logger *zap.Logger
}

// NewS3Store creates an S3-backed store using the default AWS credential
// chain for the configured region
func NewS3Store(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
		logger: logger,
	}, nil
}

// Get reads the registry object
func (s *S3Store) Get(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			// Absent is an expected state, not a storage error
			return nil, ErrObjectNotFound
		}
		metrics.StorageErrorsTotal.WithLabelValues("get", "unavailable").Inc()
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrStoreUnavailable, s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("get", "unavailable").Inc()
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", ErrStoreUnavailable, s.bucket, s.key, err)
	}

	s.logger.Debug("Read registry object",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key),
		zap.Int("size", len(data)))

	return data, nil
}

// Put overwrites the registry object
func (s *S3Store) Put(ctx context.Context, data []byte) error {
	// Plain documents are JSON; encrypted envelopes are opaque bytes
	contentType := "application/octet-stream"
	if bytes.HasPrefix(data, []byte("{")) {
		contentType = "application/json"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("put", "unavailable").Inc()
		return fmt.Errorf("%w: put s3://%s/%s: %v", ErrStoreUnavailable, s.bucket, s.key, err)
	}

	s.logger.Debug("Wrote registry object",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key),
		zap.Int("size", len(data)))

	return nil
}
