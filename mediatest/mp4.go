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

package mediatest

import (
	"github.com/abema/go-mp4"
)

// Edit is an edit list entry. MediaTime -1 is an empty edit.
type Edit struct {
	SegmentDuration uint64
	MediaTime       int64
}

// Fragment describes one moof+mdat pair with a single sample.
// FirstSampleFields additionally sets data offset, first sample flags,
// sample duration and sample size in the trun.
type Fragment struct {
	BaseMediaDecodeTime uint64
	CompositionOffset   int32
	FirstSampleFields   bool
	Payload             []byte
}

// FragmentedMP4 describes a fragmented MP4 file.
type FragmentedMP4 struct {
	Version        uint8 // version of mvhd, mdhd, elst and tfdt
	MovieTimescale uint32
	TrackTimescale uint32
	Tracks         int // defaults to 1
	Edits          []Edit
	Fragments      []Fragment
}

const (
	trunDataOffset       = 0x000001
	trunFirstSampleFlags = 0x000004
	trunSampleDuration   = 0x000100
	trunSampleSize       = 0x000200
	trunSampleCTS        = 0x000800

	tfhdDefaultBaseIsMoof = 0x020000
)

func flags(f uint32) [3]byte {
	return [3]byte{byte(f >> 16), byte(f >> 8), byte(f)}
}

// Bytes renders the file.
func (f FragmentedMP4) Bytes() ([]byte, error) {
	buf := &seekBuffer{}
	w := mp4.NewWriter(buf)

	box := func(t mp4.BoxType, payload func() error, children ...func() error) func() error {
		return func() error {
			if _, err := w.StartBox(&mp4.BoxInfo{Type: t}); err != nil {
				return err
			}
			if payload != nil {
				if err := payload(); err != nil {
					return err
				}
			}
			for _, c := range children {
				if err := c(); err != nil {
					return err
				}
			}
			_, err := w.EndBox()
			return err
		}
	}
	marshal := func(b mp4.IBox) func() error {
		return func() error {
			_, err := mp4.Marshal(w, b, mp4.Context{})
			return err
		}
	}

	ftyp := box(mp4.BoxTypeFtyp(), marshal(&mp4.Ftyp{
		MajorBrand:   [4]byte{'i', 's', 'o', '6'},
		MinorVersion: 0,
		CompatibleBrands: []mp4.CompatibleBrandElem{
			{CompatibleBrand: [4]byte{'i', 's', 'o', '6'}},
			{CompatibleBrand: [4]byte{'m', 's', 'e', '1'}},
		},
	}))
	if err := ftyp(); err != nil {
		return nil, err
	}

	tracks := f.Tracks
	if tracks == 0 {
		tracks = 1
	}
	var traks []func() error
	for i := 0; i < tracks; i++ {
		children := []func() error{
			box(mp4.BoxTypeTkhd(), marshal(&mp4.Tkhd{
				FullBox: mp4.FullBox{Version: f.Version, Flags: flags(0x000003)},
				TrackID: uint32(i + 1),
			})),
		}
		if f.Edits != nil {
			elst := &mp4.Elst{
				FullBox:    mp4.FullBox{Version: f.Version},
				EntryCount: uint32(len(f.Edits)),
			}
			for _, e := range f.Edits {
				entry := mp4.ElstEntry{MediaRateInteger: 1}
				if f.Version == 1 {
					entry.SegmentDurationV1 = e.SegmentDuration
					entry.MediaTimeV1 = e.MediaTime
				} else {
					entry.SegmentDurationV0 = uint32(e.SegmentDuration)
					entry.MediaTimeV0 = int32(e.MediaTime)
				}
				elst.Entries = append(elst.Entries, entry)
			}
			children = append(children, box(mp4.BoxTypeEdts(), nil, box(mp4.BoxTypeElst(), marshal(elst))))
		}
		children = append(children, box(mp4.BoxTypeMdia(), nil,
			box(mp4.BoxTypeMdhd(), marshal(&mp4.Mdhd{
				FullBox:   mp4.FullBox{Version: f.Version},
				Timescale: f.TrackTimescale,
			})),
		))
		traks = append(traks, box(mp4.BoxTypeTrak(), nil, children...))
	}
	moov := box(mp4.BoxTypeMoov(), nil, append([]func() error{
		box(mp4.BoxTypeMvhd(), marshal(&mp4.Mvhd{
			FullBox:     mp4.FullBox{Version: f.Version},
			Timescale:   f.MovieTimescale,
			Rate:        0x00010000,
			Volume:      0x0100,
			NextTrackID: uint32(tracks + 1),
		})),
	}, traks...)...)
	if err := moov(); err != nil {
		return nil, err
	}

	for i, frag := range f.Fragments {
		trun := &mp4.Trun{
			SampleCount: 1,
			Entries:     []mp4.TrunEntry{{}},
		}
		var trunFlags uint32
		if frag.FirstSampleFields {
			trunFlags |= trunDataOffset | trunFirstSampleFlags | trunSampleDuration | trunSampleSize
			trun.DataOffset = 8
			trun.FirstSampleFlags = 0x02000000
			trun.Entries[0].SampleDuration = 1000
			trun.Entries[0].SampleSize = uint32(len(frag.Payload))
		}
		if frag.CompositionOffset != 0 {
			trunFlags |= trunSampleCTS
			if frag.CompositionOffset < 0 {
				trun.Version = 1
				trun.Entries[0].SampleCompositionTimeOffsetV1 = frag.CompositionOffset
			} else {
				trun.Entries[0].SampleCompositionTimeOffsetV0 = uint32(frag.CompositionOffset)
			}
		}
		trun.Flags = flags(trunFlags)

		tfdt := &mp4.Tfdt{FullBox: mp4.FullBox{Version: f.Version}}
		if f.Version == 1 {
			tfdt.BaseMediaDecodeTimeV1 = frag.BaseMediaDecodeTime
		} else {
			tfdt.BaseMediaDecodeTimeV0 = uint32(frag.BaseMediaDecodeTime)
		}

		moof := box(mp4.BoxTypeMoof(), nil,
			box(mp4.BoxTypeMfhd(), marshal(&mp4.Mfhd{SequenceNumber: uint32(i + 1)})),
			box(mp4.BoxTypeTraf(), nil,
				box(mp4.BoxTypeTfhd(), marshal(&mp4.Tfhd{
					FullBox: mp4.FullBox{Flags: flags(tfhdDefaultBaseIsMoof)},
					TrackID: 1,
				})),
				box(mp4.BoxTypeTfdt(), marshal(tfdt)),
				box(mp4.BoxTypeTrun(), marshal(trun)),
			),
		)
		if err := moof(); err != nil {
			return nil, err
		}
		mdat := box(mp4.BoxTypeMdat(), marshal(&mp4.Mdat{Data: frag.Payload}))
		if err := mdat(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
