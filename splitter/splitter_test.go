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

package splitter

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cmp/cmp"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/matroska"
	"github.com/seqsense/msesegment/mediatest"
	s3m "github.com/seqsense/msesegment/s3mockserver"
	"github.com/seqsense/msesegment/sink"
)

func writeFile(t *testing.T, dir, name string, b []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func testMP4(t *testing.T) []byte {
	t.Helper()
	b, err := mediatest.FragmentedMP4{
		MovieTimescale: 1000,
		TrackTimescale: 1000,
		Fragments: []mediatest.Fragment{
			{BaseMediaDecodeTime: 0, Payload: []byte{1, 2, 3}},
			{BaseMediaDecodeTime: 1000, Payload: []byte{4, 5, 6, 7}},
		},
	}.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func testWebM(t *testing.T) []byte {
	t.Helper()
	b, err := mediatest.WebM{Timestamps: []uint64{0, 1000, 2000}}.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func newTestSink(t *testing.T, server *s3m.S3Server) *sink.S3 {
	t.Helper()
	cfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials("key", "secret", "token"),
		Region:           aws.String("ap-northeast-1"),
		Endpoint:         &server.URL,
		S3ForcePathStyle: aws.Bool(true),
	}
	return sink.NewS3("media", "split", session.Must(session.NewSession(cfg)))
}

func TestKeys(t *testing.T) {
	testCases := map[string]struct {
		name  string
		init  string
		media []string
	}{
		"Local": {
			name:  "/data/video.mp4",
			init:  "video.mp4/init.mp4",
			media: []string{"video.mp4/media1.mp4", "video.mp4/media2.mp4"},
		},
		"S3": {
			name:  "s3://bucket/dir/video.webm",
			init:  "video.webm/init.webm",
			media: []string{"video.webm/media1.webm", "video.webm/media2.webm"},
		},
		"NoExtension": {
			name:  "video",
			init:  "video/init",
			media: []string{"video/media1", "video/media2"},
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			initKey, media := Keys(tt.name, 2)
			if initKey != tt.init {
				t.Errorf("Expected %s, got %s", tt.init, initKey)
			}
			if diff := cmp.Diff(tt.media, media); diff != "" {
				t.Errorf("Unexpected media keys (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestSplit_Dir(t *testing.T) {
	data := testMP4(t)
	src := writeFile(t, t.TempDir(), "video.mp4", data)
	out := t.TempDir()

	if err := Split(context.Background(), src, sink.Dir{Path: out}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var joined []byte
	for _, name := range []string{"init.mp4", "media1.mp4", "media2.mp4"} {
		b, err := os.ReadFile(filepath.Join(out, "video.mp4", name))
		if err != nil {
			t.Fatal(err)
		}
		if len(b) == 0 {
			t.Errorf("%s must not be empty", name)
		}
		joined = append(joined, b...)
	}
	if !bytes.Equal(data, joined) {
		t.Error("Concatenated chunks must equal the source file")
	}
	if _, err := os.Stat(filepath.Join(out, "video.mp4", "media3.mp4")); !os.IsNotExist(err) {
		t.Error("Unexpected media3.mp4")
	}
}

func TestSplit_S3(t *testing.T) {
	server := s3m.NewS3Server()
	defer server.Close()

	data := testWebM(t)
	src := writeFile(t, t.TempDir(), "video.webm", data)

	if err := Split(context.Background(), src, newTestSink(t, server)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []string{
		"split/video.webm/init.webm",
		"split/video.webm/media1.webm",
		"split/video.webm/media2.webm",
		"split/video.webm/media3.webm",
	}
	keys := server.Keys("media")
	if diff := cmp.Diff(expected, keys); diff != "" {
		t.Fatalf("Unexpected keys (-expected +actual):\n%s", diff)
	}
	var joined []byte
	for _, k := range keys {
		b, _ := server.GetObject("media", k)
		joined = append(joined, b...)
	}
	if !bytes.Equal(data, joined) {
		t.Error("Concatenated objects must equal the source file")
	}
}

func TestSplit_Errors(t *testing.T) {
	dir := t.TempDir()
	cluster := func(ts uint64) []byte {
		return mediatest.Element(uint64(matroska.IDCluster),
			mediatest.Element(uint64(matroska.IDTimestamp), mediatest.UintBytes(ts)),
		)
	}
	gap := append(
		mediatest.Element(uint64(matroska.IDEBML)),
		mediatest.Element(uint64(matroska.IDSegment),
			mediatest.Element(uint64(matroska.IDInfo)),
			cluster(0),
			mediatest.Element(uint64(matroska.IDVoid), []byte{0, 0}),
			cluster(1000),
		)...,
	)

	t.Run("NotContiguous", func(t *testing.T) {
		out := t.TempDir()
		err := Split(context.Background(), writeFile(t, dir, "gap.webm", gap), sink.Dir{Path: out})
		if err == nil {
			t.Fatal("Expected error")
		}
		entries, err := os.ReadDir(out)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("Nothing must be written, got %d entries", len(entries))
		}
	})
	t.Run("NoSegments", func(t *testing.T) {
		b, err := mediatest.WebM{}.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		err = Split(context.Background(), writeFile(t, dir, "empty.webm", b), sink.Dir{Path: t.TempDir()})
		if !errors.Is(err, msesegment.ErrNoSegments) {
			t.Errorf("Expected %v, got %v", msesegment.ErrNoSegments, err)
		}
	})
	t.Run("UploadFailure", func(t *testing.T) {
		server := s3m.NewS3Server(s3m.WithPutObjectHook(func(bucket, key string, body []byte, w http.ResponseWriter) bool {
			if strings.HasSuffix(key, "media2.mp4") {
				w.WriteHeader(http.StatusForbidden)
				return false
			}
			return true
		}))
		defer server.Close()

		err := Split(context.Background(), writeFile(t, dir, "video.mp4", testMP4(t)), newTestSink(t, server))
		if err == nil {
			t.Fatal("Expected error")
		}
		if _, ok := server.GetObject("media", "split/video.mp4/media1.mp4"); !ok {
			t.Error("media1.mp4 must be uploaded before the failure")
		}
	})
}

func TestSplitAll(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		writeFile(t, dir, "a.mp4", testMP4(t)),
		writeFile(t, dir, "b.webm", testWebM(t)),
		writeFile(t, dir, "c.txt", []byte("text")),
		filepath.Join(dir, "missing.mp4"),
	}
	out := t.TempDir()

	err := SplitAll(context.Background(), names, sink.Dir{Path: out}, WithConcurrency(3))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected not exist error of missing.mp4, got %v", err)
	}
	var me msesegment.MultiError
	if !errors.As(err, &me) || len(me) != 1 {
		t.Fatalf("Expected a single failure, got %v", err)
	}

	for name, n := range map[string]int{"a.mp4": 3, "b.webm": 4} {
		entries, err := os.ReadDir(filepath.Join(out, name))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != n {
			t.Errorf("Expected %d files for %s, got %d", n, name, len(entries))
		}
	}
	if _, err := os.Stat(filepath.Join(out, "c.txt")); !os.IsNotExist(err) {
		t.Error("Unsupported file must be skipped")
	}

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := SplitAll(ctx, names[:1], sink.Dir{Path: t.TempDir()}); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected %v, got %v", context.Canceled, err)
		}
	})
}

func TestSplitAll_Malformed(t *testing.T) {
	dir := t.TempDir()
	wide := append(
		mediatest.Element(uint64(matroska.IDEBML), mediatest.Element(uint64(matroska.IDDocType), []byte("webm"))),
		mediatest.Element(uint64(matroska.IDSegment),
			mediatest.Element(uint64(matroska.IDInfo)),
			mediatest.Element(uint64(matroska.IDCluster),
				mediatest.Element(uint64(matroska.IDTimestamp), []byte{1, 0, 0, 0, 0, 0, 0, 0, 0}),
			),
		)...,
	)
	names := []string{
		writeFile(t, dir, "a.mp4", testMP4(t)),
		writeFile(t, dir, "wide.webm", wide),
	}
	out := t.TempDir()

	err := SplitAll(context.Background(), names, sink.Dir{Path: out})
	if !errors.Is(err, msesegment.ErrIntegerTooLarge) {
		t.Fatalf("Expected %v, got %v", msesegment.ErrIntegerTooLarge, err)
	}
	if errors.Is(err, msesegment.ErrUnsupported) {
		t.Errorf("Malformed file must not be reported as unsupported: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "wide.webm")); !os.IsNotExist(err) {
		t.Error("Nothing must be written for the malformed file")
	}
	if _, err := os.Stat(filepath.Join(out, "a.mp4")); err != nil {
		t.Errorf("Valid file must still be split: %v", err)
	}
}
