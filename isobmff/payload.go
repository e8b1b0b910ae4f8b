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
	"fmt"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
)

// Payload is the decoded form of one of the box types listed in Decode.
type Payload interface {
	BoxType() Type
}

// Decode dispatches b to the decoder of its type. Boxes of other types
// yield a nil Payload and no error.
func Decode(b Box) (Payload, error) {
	switch b.Type {
	case TypeMoov:
		return decodePayload(DecodeMovie(b))
	case TypeMvhd:
		return decodePayload(DecodeMovieHeader(b))
	case TypeTrak:
		return decodePayload(DecodeTrack(b))
	case TypeTkhd:
		return decodePayload(DecodeTrackHeader(b))
	case TypeMdia:
		return decodePayload(DecodeMedia(b))
	case TypeMdhd:
		return decodePayload(DecodeMediaHeader(b))
	case TypeEdts:
		return decodePayload(DecodeEdits(b))
	case TypeElst:
		return decodePayload(DecodeEditList(b))
	case TypeMoof:
		return decodePayload(DecodeMovieFragment(b))
	case TypeTraf:
		return decodePayload(DecodeTrackFragment(b))
	case TypeTfhd:
		return decodePayload(DecodeTrackFragmentHeader(b))
	case TypeTfdt:
		return decodePayload(DecodeBaseMediaDecodeTime(b))
	case TypeTrun:
		return decodePayload(DecodeTrackRun(b))
	}
	return nil, nil
}

func decodePayload(p Payload, err error) (Payload, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FullHeader is the version and flags prefix of a full box.
type FullHeader struct {
	Version uint8
	Flags   uint32
}

// timeSize is the width of time fields selected by the version.
func (h FullHeader) timeSize() int64 {
	if h.Version == 1 {
		return 8
	}
	return 4
}

// fullBox reads the full box prefix and returns a reader positioned after it.
func fullBox(b Box) (FullHeader, *bytereader.Reader, error) {
	r := b.Content()
	v, err := r.ReadUint(4)
	if err != nil {
		return FullHeader{}, nil, fieldErr(b, "version and flags", err)
	}
	return FullHeader{Version: uint8(v >> 24), Flags: uint32(v & 0xffffff)}, r, nil
}

func fieldErr(b Box, field string, err error) error {
	if _, ok := err.(*bytereader.BoundsError); !ok {
		err = msesegment.ErrTruncated
	}
	return formatErr(b.Offset, fmt.Sprintf("%s.%s", b.Type, field), err)
}

// MovieHeader is the mvhd box.
type MovieHeader struct {
	FullHeader
	Timescale uint32
}

func (MovieHeader) BoxType() Type { return TypeMvhd }

func DecodeMovieHeader(b Box) (MovieHeader, error) {
	h, r, err := fullBox(b)
	if err != nil {
		return MovieHeader{}, err
	}
	// creation_time, modification_time
	r.Skip(2 * h.timeSize())
	ts, err := r.ReadUint(4)
	if err != nil {
		return MovieHeader{}, fieldErr(b, "timescale", err)
	}
	return MovieHeader{FullHeader: h, Timescale: uint32(ts)}, nil
}

// TrackHeader is the tkhd box.
type TrackHeader struct {
	FullHeader
	TrackID uint32
}

func (TrackHeader) BoxType() Type { return TypeTkhd }

func DecodeTrackHeader(b Box) (TrackHeader, error) {
	h, r, err := fullBox(b)
	if err != nil {
		return TrackHeader{}, err
	}
	// creation_time, modification_time
	r.Skip(2 * h.timeSize())
	id, err := r.ReadUint(4)
	if err != nil {
		return TrackHeader{}, fieldErr(b, "track_ID", err)
	}
	return TrackHeader{FullHeader: h, TrackID: uint32(id)}, nil
}

// MediaHeader is the mdhd box.
type MediaHeader struct {
	FullHeader
	Timescale uint32
}

func (MediaHeader) BoxType() Type { return TypeMdhd }

func DecodeMediaHeader(b Box) (MediaHeader, error) {
	h, r, err := fullBox(b)
	if err != nil {
		return MediaHeader{}, err
	}
	// creation_time, modification_time
	r.Skip(2 * h.timeSize())
	ts, err := r.ReadUint(4)
	if err != nil {
		return MediaHeader{}, fieldErr(b, "timescale", err)
	}
	return MediaHeader{FullHeader: h, Timescale: uint32(ts)}, nil
}

// EditListEntry is one entry of an edit list. MediaTime -1 marks an empty edit.
type EditListEntry struct {
	SegmentDuration uint64
	MediaTime       int64
}

func (e EditListEntry) Empty() bool {
	return e.MediaTime == -1
}

// EditList is the elst box.
type EditList struct {
	FullHeader
	Entries []EditListEntry
}

func (EditList) BoxType() Type { return TypeElst }

func DecodeEditList(b Box) (EditList, error) {
	h, r, err := fullBox(b)
	if err != nil {
		return EditList{}, err
	}
	n, err := r.ReadUint(4)
	if err != nil {
		return EditList{}, fieldErr(b, "entry_count", err)
	}
	size := 2*h.timeSize() + 4
	if int64(n) > r.Remaining()/size {
		return EditList{}, fieldErr(b, fmt.Sprintf("entries[%d]", n), msesegment.ErrTruncated)
	}
	el := EditList{FullHeader: h, Entries: make([]EditListEntry, 0, n)}
	for i := uint64(0); i < n; i++ {
		var e EditListEntry
		if e.SegmentDuration, err = r.ReadUint(h.timeSize()); err != nil {
			return EditList{}, fieldErr(b, "segment_duration", err)
		}
		if e.MediaTime, err = r.ReadInt(h.timeSize()); err != nil {
			return EditList{}, fieldErr(b, "media_time", err)
		}
		// media_rate_integer, media_rate_fraction
		if _, err = r.ReadFull(4); err != nil {
			return EditList{}, fieldErr(b, "media_rate", err)
		}
		el.Entries = append(el.Entries, e)
	}
	return el, nil
}

// TrackFragmentFlags are the tf_flags of a tfhd box.
type TrackFragmentFlags uint32

const (
	TrackFragmentBaseDataOffset         TrackFragmentFlags = 0x01
	TrackFragmentSampleDescriptionIndex TrackFragmentFlags = 0x02
	TrackFragmentDefaultSampleDuration  TrackFragmentFlags = 0x08
	TrackFragmentDefaultSampleSize      TrackFragmentFlags = 0x10
	TrackFragmentDefaultSampleFlags     TrackFragmentFlags = 0x20
	TrackFragmentDurationIsEmpty        TrackFragmentFlags = 0x10000
	TrackFragmentDefaultBaseIsMoof      TrackFragmentFlags = 0x20000
)

// TrackFragmentHeader is the tfhd box.
type TrackFragmentHeader struct {
	FullHeader
	TrackID uint32
}

func (TrackFragmentHeader) BoxType() Type { return TypeTfhd }

func (h TrackFragmentHeader) TrackFragmentFlags() TrackFragmentFlags {
	return TrackFragmentFlags(h.Flags)
}

func DecodeTrackFragmentHeader(b Box) (TrackFragmentHeader, error) {
	h, r, err := fullBox(b)
	if err != nil {
		return TrackFragmentHeader{}, err
	}
	id, err := r.ReadUint(4)
	if err != nil {
		return TrackFragmentHeader{}, fieldErr(b, "track_ID", err)
	}
	return TrackFragmentHeader{FullHeader: h, TrackID: uint32(id)}, nil
}

// BaseMediaDecodeTime is the tfdt box.
type BaseMediaDecodeTime struct {
	FullHeader
	BaseMediaDecodeTime uint64
}

func (BaseMediaDecodeTime) BoxType() Type { return TypeTfdt }

func DecodeBaseMediaDecodeTime(b Box) (BaseMediaDecodeTime, error) {
	h, r, err := fullBox(b)
	if err != nil {
		return BaseMediaDecodeTime{}, err
	}
	t, err := r.ReadUint(h.timeSize())
	if err != nil {
		return BaseMediaDecodeTime{}, fieldErr(b, "baseMediaDecodeTime", err)
	}
	return BaseMediaDecodeTime{FullHeader: h, BaseMediaDecodeTime: t}, nil
}

// TrackRunFlags are the tr_flags of a trun box.
type TrackRunFlags uint32

const (
	TrackRunDataOffset       TrackRunFlags = 0x01
	TrackRunFirstSampleFlags TrackRunFlags = 0x04
	TrackRunSampleDuration   TrackRunFlags = 0x100
	TrackRunSampleSize       TrackRunFlags = 0x200
	TrackRunSampleFlags      TrackRunFlags = 0x400
	TrackRunSampleCTS        TrackRunFlags = 0x800
)

// TrackRun is the trun box, decoded up to the first sample.
type TrackRun struct {
	FullHeader
	SampleCount      uint32
	DataOffset       int32
	FirstSampleFlags uint32

	// FirstSampleCompositionTimeOffset is zero unless TrackRunSampleCTS is set.
	FirstSampleCompositionTimeOffset int64
}

func (TrackRun) BoxType() Type { return TypeTrun }

func (t TrackRun) TrackRunFlags() TrackRunFlags {
	return TrackRunFlags(t.Flags)
}

func DecodeTrackRun(b Box) (TrackRun, error) {
	h, r, err := fullBox(b)
	if err != nil {
		return TrackRun{}, err
	}
	run := TrackRun{FullHeader: h}
	flags := run.TrackRunFlags()

	n, err := r.ReadUint(4)
	if err != nil {
		return TrackRun{}, fieldErr(b, "sample_count", err)
	}
	if n == 0 {
		return TrackRun{}, formatErr(b.Offset, "trun without samples", msesegment.ErrMissingBox)
	}
	run.SampleCount = uint32(n)

	if flags&TrackRunDataOffset != 0 {
		v, err := r.ReadInt(4)
		if err != nil {
			return TrackRun{}, fieldErr(b, "data_offset", err)
		}
		run.DataOffset = int32(v)
	}
	if flags&TrackRunFirstSampleFlags != 0 {
		v, err := r.ReadUint(4)
		if err != nil {
			return TrackRun{}, fieldErr(b, "first_sample_flags", err)
		}
		run.FirstSampleFlags = uint32(v)
	}

	// First sample only
	for _, f := range []TrackRunFlags{TrackRunSampleDuration, TrackRunSampleSize, TrackRunSampleFlags} {
		if flags&f != 0 {
			if _, err := r.ReadFull(4); err != nil {
				return TrackRun{}, fieldErr(b, "sample", err)
			}
		}
	}
	if flags&TrackRunSampleCTS != 0 {
		if run.FirstSampleCompositionTimeOffset, err = r.ReadInt(4); err != nil {
			return TrackRun{}, fieldErr(b, "sample_composition_time_offset", err)
		}
	}
	return run, nil
}
