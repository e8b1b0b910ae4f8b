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

// Package splitter copies the initialization data and each media segment of
// a file into separate objects.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/locate"
	"github.com/seqsense/msesegment/sink"
)

type Options struct {
	Opener      locate.Opener
	Concurrency int
}

type Option func(*Options)

// WithOpener sets how media files are opened. Local files are opened by default.
func WithOpener(o locate.Opener) Option {
	return func(opts *Options) {
		opts.Opener = o
	}
}

// WithConcurrency sets the number of files processed at once by SplitAll.
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

// Keys returns the keys of the initialization data and of n media segments
// of name: <base name>/init<ext> and <base name>/media<i><ext> from 1.
func Keys(name string, n int) (string, []string) {
	base := path.Base(filepath.ToSlash(name))
	ext := path.Ext(base)
	media := make([]string, n)
	for i := range media {
		media[i] = fmt.Sprintf("%s/media%d%s", base, i+1, ext)
	}
	return base + "/init" + ext, media
}

// Split stores the initialization data and the media segments of name in s.
// Nothing is stored unless the segments are contiguous.
func Split(ctx context.Context, name string, s sink.Sink, opts ...Option) error {
	o := newOptions(opts)
	segments, err := locate.FindSegments(ctx, o.Opener, name)
	if err != nil {
		return err
	}
	if err := segments.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	src, err := o.Opener.Open(ctx, name)
	if err != nil {
		return err
	}
	defer src.Close()

	initKey, mediaKeys := Keys(name, len(segments))
	put := func(key string, offset, size int64) error {
		r, err := src.Region(offset, size)
		if err != nil {
			return err
		}
		return s.Put(ctx, key, r.SectionReader(), size)
	}
	if err := put(initKey, src.Start(), segments.InitSize()); err != nil {
		return err
	}
	for i, seg := range segments {
		if err := put(mediaKeys[i], seg.Offset, seg.Size); err != nil {
			return err
		}
	}
	msesegment.Logger().Infof("%s: split into %d media segments, last at %s",
		name, len(segments), msesegment.ToDuration(segments[len(segments)-1].Time))
	return nil
}

// SplitAll splits names into s. Files of unsupported types are skipped with
// a warning. Failures of other files do not stop the rest and are returned
// together.
func SplitAll(ctx context.Context, names []string, s sink.Sink, opts ...Option) error {
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
			err := Split(ctx, name, s, opts...)
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
