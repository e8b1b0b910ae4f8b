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

// Package manifest describes the media segments of files as JSON manifests.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/locate"
	"github.com/seqsense/msesegment/s3source"
	"github.com/seqsense/msesegment/sink"
)

// Suffix is appended to the media file name to name its manifest.
const Suffix = "-manifest.json"

type Manifest struct {
	URL             string                   `json:"url"`
	InitSegmentSize int64                    `json:"init_segment_size"`
	MediaSegments   msesegment.MediaSegments `json:"media_segments"`
}

type Options struct {
	Opener      locate.Opener
	Sink        sink.Sink
	BaseURL     string
	Concurrency int
}

type Option func(*Options)

// WithOpener sets how media files are opened. Local files are opened by default.
func WithOpener(o locate.Opener) Option {
	return func(opts *Options) {
		opts.Opener = o
	}
}

// WithSink sets where manifests are written. By default a manifest is
// written next to its local media file.
func WithSink(s sink.Sink) Option {
	return func(opts *Options) {
		opts.Sink = s
	}
}

// WithBaseURL makes the manifest url the base name of the media file
// joined to u, instead of the name given.
func WithBaseURL(u string) Option {
	return func(opts *Options) {
		opts.BaseURL = u
	}
}

// WithConcurrency sets the number of files processed at once by GenerateAll.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		opts.Concurrency = n
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{
		Opener:      locate.FileOpener{},
		Concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func baseName(name string) string {
	return path.Base(filepath.ToSlash(name))
}

// Generate locates the media segments of name.
func Generate(ctx context.Context, name string, opts ...Option) (*Manifest, error) {
	o := newOptions(opts)
	segments, err := locate.FindSegments(ctx, o.Opener, name)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%s: %w", name, msesegment.ErrNoSegments)
	}
	url := name
	if o.BaseURL != "" {
		url = o.BaseURL + "/" + baseName(name)
	}
	return &Manifest{
		URL:             url,
		InitSegmentSize: segments.InitSize(),
		MediaSegments:   segments,
	}, nil
}

// Marshal returns the manifest as JSON indented by two spaces.
func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Write generates the manifest of name and stores it as <base name>-manifest.json.
func Write(ctx context.Context, name string, opts ...Option) error {
	o := newOptions(opts)
	m, err := Generate(ctx, name, opts...)
	if err != nil {
		return err
	}
	b, err := m.Marshal()
	if err != nil {
		return err
	}
	s := o.Sink
	if s == nil {
		if _, _, remote := s3source.ParseURL(name); remote {
			return fmt.Errorf("%s: no sink for a remote file", name)
		}
		s = sink.Dir{Path: filepath.Dir(name)}
	}
	key := baseName(name) + Suffix
	if err := s.Put(ctx, key, bytes.NewReader(b), int64(len(b))); err != nil {
		return err
	}
	msesegment.Logger().Infof("%s: %d media segments, init segment %d bytes", key, len(m.MediaSegments), m.InitSegmentSize)
	return nil
}

// GenerateAll writes the manifests of names. Files of unsupported types are
// skipped with a warning. Failures of other files do not stop the rest and
// are returned together.
func GenerateAll(ctx context.Context, names []string, opts ...Option) error {
	o := newOptions(opts)
	var errs msesegment.SyncMultiError
	var eg errgroup.Group
	eg.SetLimit(max(o.Concurrency, 1))
	for _, name := range names {
		name := name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs.Add(fmt.Errorf("%s: %w", name, err))
				return nil
			}
			err := Write(ctx, name, opts...)
			if errors.Is(err, msesegment.ErrUnsupported) {
				msesegment.Logger().Warnf("skipping %s: %v", name, err)
				return nil
			}
			errs.Add(err)
			return nil
		})
	}
	eg.Wait()
	return errs.Err()
}
