// Copyright 2026 SEQSENSE, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sink stores generated files either in a local directory or in S3.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/seqsense/msesegment"
)

// Sink stores size bytes read from r under a slash separated key.
type Sink interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
}

// Dir writes keys as files below Path, creating directories as needed.
type Dir struct {
	Path string
}

func (d Dir) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := filepath.Join(d.Path, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return err
	}
	if n != size {
		f.Close()
		return fmt.Errorf("%s: wrote %d of %d bytes", name, n, size)
	}
	if err := f.Close(); err != nil {
		return err
	}
	msesegment.Logger().Debugf("wrote %s (%d bytes)", name, n)
	return nil
}

// S3 uploads keys below Prefix in Bucket.
type S3 struct {
	Bucket string
	Prefix string

	uploader *s3manager.Uploader
}

func NewS3(bucket, prefix string, sess client.ConfigProvider, cfgs ...*aws.Config) *S3 {
	return &S3{
		Bucket:   bucket,
		Prefix:   prefix,
		uploader: s3manager.NewUploaderWithClient(s3.New(sess, cfgs...)),
	}
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	k := path.Join(s.Prefix, key)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(k),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("s3://%s/%s: %w", s.Bucket, k, err)
	}
	msesegment.Logger().Debugf("uploaded %s (%d bytes)", out.Location, size)
	return nil
}
