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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/mediatest"
)

func TestDecode(t *testing.T) {
	const allRunFlags = 0x01 | 0x04 | 0x100 | 0x200 | 0x400 | 0x800

	testCases := map[string]struct {
		input    []byte
		expected Payload
		err      error
	}{
		"MovieHeaderV0": {
			input:    mediatest.FullBox("mvhd", 0, 0, mediatest.U32(1), mediatest.U32(2), mediatest.U32(1000), mediatest.U32(5000)),
			expected: MovieHeader{Timescale: 1000},
		},
		"MovieHeaderV1": {
			input:    mediatest.FullBox("mvhd", 1, 0, mediatest.U64(1), mediatest.U64(2), mediatest.U32(90000), mediatest.U64(5000)),
			expected: MovieHeader{FullHeader: FullHeader{Version: 1}, Timescale: 90000},
		},
		"MovieHeaderTruncated": {
			input: mediatest.FullBox("mvhd", 1, 0, mediatest.U64(1), mediatest.U64(2)),
			err:   msesegment.ErrTruncated,
		},
		"TrackHeaderV0": {
			input:    mediatest.FullBox("tkhd", 0, 3, mediatest.U32(1), mediatest.U32(2), mediatest.U32(7)),
			expected: TrackHeader{FullHeader: FullHeader{Flags: 3}, TrackID: 7},
		},
		"TrackHeaderV1": {
			input:    mediatest.FullBox("tkhd", 1, 3, mediatest.U64(1), mediatest.U64(2), mediatest.U32(2)),
			expected: TrackHeader{FullHeader: FullHeader{Version: 1, Flags: 3}, TrackID: 2},
		},
		"MediaHeaderV0": {
			input:    mediatest.FullBox("mdhd", 0, 0, mediatest.U32(0), mediatest.U32(0), mediatest.U32(48000)),
			expected: MediaHeader{Timescale: 48000},
		},
		"MediaHeaderV1": {
			input:    mediatest.FullBox("mdhd", 1, 0, mediatest.U64(0), mediatest.U64(0), mediatest.U32(12800)),
			expected: MediaHeader{FullHeader: FullHeader{Version: 1}, Timescale: 12800},
		},
		"EditListV0": {
			input: mediatest.FullBox("elst", 0, 0, mediatest.U32(2),
				mediatest.U32(500), mediatest.U32(0xFFFFFFFF), mediatest.U32(0x00010000),
				mediatest.U32(1000), mediatest.U32(100), mediatest.U32(0x00010000),
			),
			expected: EditList{Entries: []EditListEntry{
				{SegmentDuration: 500, MediaTime: -1},
				{SegmentDuration: 1000, MediaTime: 100},
			}},
		},
		"EditListV1": {
			input: mediatest.FullBox("elst", 1, 0, mediatest.U32(1),
				mediatest.U64(1<<40), mediatest.U64(1<<33), mediatest.U32(0x00010000),
			),
			expected: EditList{FullHeader: FullHeader{Version: 1}, Entries: []EditListEntry{
				{SegmentDuration: 1 << 40, MediaTime: 1 << 33},
			}},
		},
		"EditListTooManyEntries": {
			input: mediatest.FullBox("elst", 0, 0, mediatest.U32(3), mediatest.U32(500), mediatest.U32(0), mediatest.U32(0x00010000)),
			err:   msesegment.ErrTruncated,
		},
		"TrackFragmentHeader": {
			input:    mediatest.FullBox("tfhd", 0, 0x020000, mediatest.U32(1)),
			expected: TrackFragmentHeader{FullHeader: FullHeader{Flags: 0x020000}, TrackID: 1},
		},
		"BaseMediaDecodeTimeV0": {
			input:    mediatest.FullBox("tfdt", 0, 0, mediatest.U32(3000)),
			expected: BaseMediaDecodeTime{BaseMediaDecodeTime: 3000},
		},
		"BaseMediaDecodeTimeV1": {
			input:    mediatest.FullBox("tfdt", 1, 0, mediatest.U64(1<<35)),
			expected: BaseMediaDecodeTime{FullHeader: FullHeader{Version: 1}, BaseMediaDecodeTime: 1 << 35},
		},
		"TrackRunNoFlags": {
			input:    mediatest.FullBox("trun", 0, 0, mediatest.U32(10)),
			expected: TrackRun{SampleCount: 10},
		},
		"TrackRunCompositionOffset": {
			input:    mediatest.FullBox("trun", 0, 0x800, mediatest.U32(1), mediatest.U32(200)),
			expected: TrackRun{FullHeader: FullHeader{Flags: 0x800}, SampleCount: 1, FirstSampleCompositionTimeOffset: 200},
		},
		"TrackRunAllFlags": {
			input: mediatest.FullBox("trun", 1, allRunFlags, mediatest.U32(2),
				// data_offset, first_sample_flags
				mediatest.U32(0xFFFFFFF0), mediatest.U32(0x02000000),
				// first sample duration, size, flags and composition offset
				mediatest.U32(1000), mediatest.U32(10), mediatest.U32(0x01010000), mediatest.U32(0xFFFFFF9C),
				mediatest.U32(1000), mediatest.U32(10), mediatest.U32(0x01010000), mediatest.U32(0),
			),
			expected: TrackRun{
				FullHeader:                       FullHeader{Version: 1, Flags: allRunFlags},
				SampleCount:                      2,
				DataOffset:                       -16,
				FirstSampleFlags:                 0x02000000,
				FirstSampleCompositionTimeOffset: -100,
			},
		},
		"TrackRunFirstSampleFlagsOnly": {
			input: mediatest.FullBox("trun", 0, 0x04|0x800, mediatest.U32(3),
				mediatest.U32(0x02000000),
				mediatest.U32(33),
			),
			expected: TrackRun{
				FullHeader:                       FullHeader{Flags: 0x04 | 0x800},
				SampleCount:                      3,
				FirstSampleFlags:                 0x02000000,
				FirstSampleCompositionTimeOffset: 33,
			},
		},
		"TrackRunNoSamples": {
			input: mediatest.FullBox("trun", 0, 0, mediatest.U32(0)),
			err:   msesegment.ErrMissingBox,
		},
		"TrackRunTruncated": {
			input: mediatest.FullBox("trun", 0, 0x800, mediatest.U32(1)),
			err:   msesegment.ErrTruncated,
		},
		"Unknown": {
			input: mediatest.Box("free", []byte{1, 2, 3}),
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			p, err := Decode(mustBox(t, tt.input))
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Expected error %v, got %v", tt.err, err)
				}
				var fe *msesegment.FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("Expected FormatError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, p); diff != "" {
				t.Errorf("Unexpected payload (-expected +actual):\n%s", diff)
			}
		})
	}
}
