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

package isobmff

import (
	"math/big"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
)

// Locator finds the movie fragments of a single track fragmented MP4 file.
type Locator struct{}

var _ msesegment.Locator = Locator{}

// FindMediaSegments returns one segment per top-level moof box. A segment
// spans from its moof to the next moof, or to the end of r for the last one.
// r is closed before returning.
func (Locator) FindMediaSegments(r *bytereader.Reader) (msesegment.MediaSegments, error) {
	defer r.Close()

	var movie *Movie
	var fragments []MovieFragment
	it := Children(r)
	for it.Next() {
		b := it.Box()
		switch b.Type {
		case TypeMoov:
			if movie != nil {
				return nil, formatErr(b.Offset, "second moov", msesegment.ErrUnexpectedElement)
			}
			m, err := DecodeMovie(b)
			if err != nil {
				return nil, err
			}
			movie = &m
		case TypeMoof:
			if movie == nil {
				return nil, formatErr(b.Offset, "moof before moov", msesegment.ErrUnexpectedElement)
			}
			f, err := DecodeMovieFragment(b)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, f)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	if movie == nil {
		return nil, formatErr(r.Start(), "moov", msesegment.ErrMissingBox)
	}
	switch len(movie.Tracks) {
	case 0:
		return nil, formatErr(r.Start(), "trak in moov", msesegment.ErrMissingBox)
	case 1:
	default:
		return nil, formatErr(r.Start(), "moov", msesegment.ErrMultipleTracks)
	}
	track := movie.Tracks[0]
	timescale := int64(track.Media.Header.Timescale)
	if timescale == 0 {
		return nil, formatErr(r.Start(), "mdhd.timescale", msesegment.ErrZeroTimescale)
	}
	offset, err := movie.PresentationOffset(track)
	if err != nil {
		return nil, err
	}

	segments := make(msesegment.MediaSegments, 0, len(fragments))
	for i, f := range fragments {
		end := r.End()
		if i+1 < len(fragments) {
			end = fragments[i+1].Offset
		}
		t := new(big.Rat).SetFrac(f.StartTicks(), big.NewInt(timescale))
		segments = append(segments, msesegment.MediaSegment{
			Offset: f.Offset,
			Size:   end - f.Offset,
			Time:   t.Add(t, offset),
		})
	}
	msesegment.Logger().Debugf("%s: %d media segments, presentation offset %s", formatName, len(segments), offset.FloatString(6))
	return segments, nil
}
