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

// Package s3source reads media files stored in S3 through ranged GetObject
// requests.
package s3source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
	"github.com/seqsense/msesegment/locate"
)

// DefaultBlockSize is the size of a ranged read.
const DefaultBlockSize = 256 * 1024

type Client struct {
	api       s3iface.S3API
	blockSize int64
}

var _ locate.Opener = &Client{}

func New(sess client.ConfigProvider, cfgs ...*aws.Config) *Client {
	return &Client{
		api:       s3.New(sess, cfgs...),
		blockSize: DefaultBlockSize,
	}
}

// ParseURL splits an s3://bucket/key URL.
func ParseURL(name string) (bucket, key string, ok bool) {
	rest, ok := strings.CutPrefix(name, "s3://")
	if !ok {
		return "", "", false
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Open returns a Reader over an s3://bucket/key object. Other names are
// opened as local files. ctx applies to every read made through the Reader.
func (c *Client) Open(ctx context.Context, name string) (*bytereader.Reader, error) {
	bucket, key, ok := ParseURL(name)
	if !ok {
		return bytereader.Open(name)
	}
	head, err := c.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	o := &object{
		ctx:       ctx,
		api:       c.api,
		bucket:    bucket,
		key:       key,
		size:      aws.Int64Value(head.ContentLength),
		blockSize: c.blockSize,
		cached:    -1,
	}
	return bytereader.New(o, o.size), nil
}

// object is an io.ReaderAt over an S3 object. The last fetched block is kept.
type object struct {
	ctx       context.Context
	api       s3iface.S3API
	bucket    string
	key       string
	size      int64
	blockSize int64

	mu     sync.Mutex
	cached int64
	block  []byte
}

func (o *object) ReadAt(p []byte, off int64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if pos >= o.size {
			return n, io.EOF
		}
		b, err := o.fetch(pos / o.blockSize)
		if err != nil {
			return n, err
		}
		n += copy(p[n:], b[pos%o.blockSize:])
	}
	return n, nil
}

func (o *object) fetch(i int64) ([]byte, error) {
	if i == o.cached {
		return o.block, nil
	}
	start := i * o.blockSize
	end := min(start+o.blockSize, o.size)
	out, err := o.api.GetObjectWithContext(o.ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end-1)),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	b := make([]byte, end-start)
	if _, err := io.ReadFull(out.Body, b); err != nil {
		return nil, fmt.Errorf("s3://%s/%s: range %d-%d: %w", o.bucket, o.key, start, end-1, err)
	}
	msesegment.Logger().Debugf("s3://%s/%s: fetched %d-%d", o.bucket, o.key, start, end-1)
	o.cached, o.block = i, b
	return b, nil
}
