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

package s3source

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cmp/cmp"

	"github.com/seqsense/msesegment/bytereader"
	"github.com/seqsense/msesegment/isobmff"
	"github.com/seqsense/msesegment/locate"
	"github.com/seqsense/msesegment/mediatest"
	s3m "github.com/seqsense/msesegment/s3mockserver"
)

var ratComparer = cmp.Comparer(func(a, b *big.Rat) bool {
	return a.Cmp(b) == 0
})

func TestParseURL(t *testing.T) {
	testCases := map[string]struct {
		url    string
		bucket string
		key    string
		ok     bool
	}{
		"Valid":       {url: "s3://bucket/dir/video.mp4", bucket: "bucket", key: "dir/video.mp4", ok: true},
		"NoKey":       {url: "s3://bucket/"},
		"NoSlash":     {url: "s3://bucket"},
		"NoBucket":    {url: "s3:///video.mp4"},
		"LocalPath":   {url: "/tmp/video.mp4"},
		"OtherScheme": {url: "https://example.com/video.mp4"},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			bucket, key, ok := ParseURL(tt.url)
			if ok != tt.ok || bucket != tt.bucket || key != tt.key {
				t.Errorf("Expected (%q, %q, %v), got (%q, %q, %v)", tt.bucket, tt.key, tt.ok, bucket, key, ok)
			}
		})
	}
}

func newTestClient(t *testing.T, server *s3m.S3Server, blockSize int64) *Client {
	t.Helper()
	cfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials("key", "secret", "token"),
		Region:           aws.String("ap-northeast-1"),
		Endpoint:         &server.URL,
		S3ForcePathStyle: aws.Bool(true),
	}
	cli := New(session.Must(session.NewSession(cfg)))
	cli.blockSize = blockSize
	return cli
}

func TestOpen(t *testing.T) {
	server := s3m.NewS3Server()
	defer server.Close()

	data, err := mediatest.FragmentedMP4{
		MovieTimescale: 1000,
		TrackTimescale: 90000,
		Fragments: []mediatest.Fragment{
			{BaseMediaDecodeTime: 0, Payload: bytes.Repeat([]byte{1}, 100)},
			{BaseMediaDecodeTime: 90000, Payload: bytes.Repeat([]byte{2}, 100)},
			{BaseMediaDecodeTime: 180000, Payload: bytes.Repeat([]byte{3}, 100)},
		},
	}.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	server.RegisterObject("media", "videos/a.mp4", data)

	const blockSize = 64
	cli := newTestClient(t, server, blockSize)
	ctx := context.Background()

	t.Run("ReadAll", func(t *testing.T) {
		r, err := cli.Open(ctx, "s3://media/videos/a.mp4")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		defer r.Close()
		if r.Size() != int64(len(data)) {
			t.Fatalf("Expected size %d, got %d", len(data), r.Size())
		}
		before := server.GetRequests()
		b, err := io.ReadAll(r.SectionReader())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, b) {
			t.Error("Content differs")
		}
		blocks := (len(data) + blockSize - 1) / blockSize
		if n := server.GetRequests() - before; n != blocks {
			t.Errorf("Expected %d ranged reads, got %d", blocks, n)
		}
	})
	t.Run("FindSegments", func(t *testing.T) {
		expected, err := isobmff.Locator{}.FindMediaSegments(bytereader.FromBytes(data))
		if err != nil {
			t.Fatal(err)
		}
		segments, err := locate.FindSegments(ctx, cli, "s3://media/videos/a.mp4")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if diff := cmp.Diff(expected, segments, ratComparer); diff != "" {
			t.Errorf("Unexpected segments (-expected +actual):\n%s", diff)
		}
	})
	t.Run("NotFound", func(t *testing.T) {
		if _, err := cli.Open(ctx, "s3://media/videos/missing.mp4"); err == nil {
			t.Error("Expected error")
		}
	})
	t.Run("LocalFile", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "a.mp4")
		if err := os.WriteFile(p, data, 0644); err != nil {
			t.Fatal(err)
		}
		r, err := cli.Open(ctx, p)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		defer r.Close()
		if r.Size() != int64(len(data)) {
			t.Errorf("Expected size %d, got %d", len(data), r.Size())
		}
	})
}
