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
	"math/big"

	"github.com/seqsense/msesegment"
)

// Movie is the moov box.
type Movie struct {
	Header MovieHeader
	Tracks []Track
}

func (Movie) BoxType() Type { return TypeMoov }

// Track is the trak box.
type Track struct {
	Offset   int64
	Header   TrackHeader
	Media    Media
	EditList *EditList
}

func (Track) BoxType() Type { return TypeTrak }

// Media is the mdia box.
type Media struct {
	Header MediaHeader
}

func (Media) BoxType() Type { return TypeMdia }

// Edits is the edts box.
type Edits struct {
	List *EditList
}

func (Edits) BoxType() Type { return TypeEdts }

// MovieFragment is the moof box.
type MovieFragment struct {
	Offset         int64
	TrackFragments []TrackFragment
}

func (MovieFragment) BoxType() Type { return TypeMoof }

// TrackFragment is the traf box.
type TrackFragment struct {
	Header     TrackFragmentHeader
	DecodeTime BaseMediaDecodeTime
	Runs       []TrackRun
}

func (TrackFragment) BoxType() Type { return TypeTraf }

func missing(parent Box, child Type) error {
	return formatErr(parent.Offset, fmt.Sprintf("%s in %s", child, parent.Type), msesegment.ErrMissingBox)
}

// decodeChildren calls fn with the decoded payload of each child box of a
// known type, in document order.
func decodeChildren(b Box, fn func(Payload)) error {
	it := Children(b.Content())
	for it.Next() {
		p, err := Decode(it.Box())
		if err != nil {
			return err
		}
		if p != nil {
			fn(p)
		}
	}
	return it.Err()
}

func DecodeMovie(b Box) (Movie, error) {
	var m Movie
	var header *MovieHeader
	err := decodeChildren(b, func(p Payload) {
		switch p := p.(type) {
		case MovieHeader:
			if header == nil {
				header = &p
			}
		case Track:
			m.Tracks = append(m.Tracks, p)
		}
	})
	if err != nil {
		return Movie{}, err
	}
	if header == nil {
		return Movie{}, missing(b, TypeMvhd)
	}
	m.Header = *header
	return m, nil
}

func DecodeTrack(b Box) (Track, error) {
	t := Track{Offset: b.Offset}
	var header *TrackHeader
	var media *Media
	var edits *Edits
	err := decodeChildren(b, func(p Payload) {
		switch p := p.(type) {
		case TrackHeader:
			if header == nil {
				header = &p
			}
		case Media:
			if media == nil {
				media = &p
			}
		case Edits:
			if edits == nil {
				edits = &p
			}
		}
	})
	if err != nil {
		return Track{}, err
	}
	if header == nil {
		return Track{}, missing(b, TypeTkhd)
	}
	if media == nil {
		return Track{}, missing(b, TypeMdia)
	}
	t.Header, t.Media = *header, *media
	if edits != nil {
		t.EditList = edits.List
	}
	return t, nil
}

func DecodeMedia(b Box) (Media, error) {
	var header *MediaHeader
	err := decodeChildren(b, func(p Payload) {
		if p, ok := p.(MediaHeader); ok && header == nil {
			header = &p
		}
	})
	if err != nil {
		return Media{}, err
	}
	if header == nil {
		return Media{}, missing(b, TypeMdhd)
	}
	return Media{Header: *header}, nil
}

func DecodeEdits(b Box) (Edits, error) {
	var e Edits
	err := decodeChildren(b, func(p Payload) {
		if p, ok := p.(EditList); ok && e.List == nil {
			e.List = &p
		}
	})
	if err != nil {
		return Edits{}, err
	}
	return e, nil
}

func DecodeMovieFragment(b Box) (MovieFragment, error) {
	f := MovieFragment{Offset: b.Offset}
	err := decodeChildren(b, func(p Payload) {
		if p, ok := p.(TrackFragment); ok {
			f.TrackFragments = append(f.TrackFragments, p)
		}
	})
	if err != nil {
		return MovieFragment{}, err
	}
	if len(f.TrackFragments) == 0 {
		return MovieFragment{}, missing(b, TypeTraf)
	}
	return f, nil
}

func DecodeTrackFragment(b Box) (TrackFragment, error) {
	var t TrackFragment
	var header *TrackFragmentHeader
	var decodeTime *BaseMediaDecodeTime
	err := decodeChildren(b, func(p Payload) {
		switch p := p.(type) {
		case TrackFragmentHeader:
			if header == nil {
				header = &p
			}
		case BaseMediaDecodeTime:
			if decodeTime == nil {
				decodeTime = &p
			}
		case TrackRun:
			t.Runs = append(t.Runs, p)
		}
	})
	if err != nil {
		return TrackFragment{}, err
	}
	switch {
	case header == nil:
		return TrackFragment{}, missing(b, TypeTfhd)
	case decodeTime == nil:
		return TrackFragment{}, missing(b, TypeTfdt)
	case len(t.Runs) == 0:
		return TrackFragment{}, missing(b, TypeTrun)
	}
	t.Header, t.DecodeTime = *header, *decodeTime
	return t, nil
}

// PresentationOffset returns the shift from media time to presentation time
// of track t given by its edit list, in seconds.
// Errors are reported at the offset of the trak box.
func (m Movie) PresentationOffset(t Track) (*big.Rat, error) {
	offset := new(big.Rat)
	if t.EditList == nil {
		return offset, nil
	}
	entries := t.EditList.Entries
	for i, e := range entries {
		if e.Empty() {
			if m.Header.Timescale == 0 {
				return nil, formatErr(t.Offset, "mvhd.timescale", msesegment.ErrZeroTimescale)
			}
			d := new(big.Rat).SetFrac(new(big.Int).SetUint64(e.SegmentDuration), big.NewInt(int64(m.Header.Timescale)))
			offset.Add(offset, d)
			continue
		}
		if i != len(entries)-1 {
			return nil, formatErr(t.Offset, fmt.Sprintf("media edit %d of %d", i+1, len(entries)), msesegment.ErrMultipleMediaEdits)
		}
		if t.Media.Header.Timescale == 0 {
			return nil, formatErr(t.Offset, "mdhd.timescale", msesegment.ErrZeroTimescale)
		}
		offset.Sub(offset, big.NewRat(e.MediaTime, int64(t.Media.Header.Timescale)))
	}
	return offset, nil
}

// StartTicks returns the composition timestamp of the first sample of the
// fragment in track timescale ticks, before edit list adjustment.
func (f MovieFragment) StartTicks() *big.Int {
	traf := f.TrackFragments[0]
	t := new(big.Int).SetUint64(traf.DecodeTime.BaseMediaDecodeTime)
	return t.Add(t, big.NewInt(traf.Runs[0].FirstSampleCompositionTimeOffset))
}
