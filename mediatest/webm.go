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
	"bytes"

	"github.com/at-wat/ebml-go"
)

type ebmlHeader struct {
	EBMLVersion            uint64
	EBMLReadVersion        uint64
	EBMLMaxIDLength        uint64
	EBMLMaxSizeLength      uint64
	EBMLDocType            string
	EBMLDocTypeVersion     uint64
	EBMLDocTypeReadVersion uint64
}

type info struct {
	TimecodeScale uint64 `ebml:",omitempty"`
	MuxingApp     string
	WritingApp    string
}

type trackEntry struct {
	TrackNumber uint64
	TrackUID    uint64
	CodecID     string
	TrackType   uint64
}

type tracks struct {
	TrackEntry []trackEntry
}

type cluster struct {
	Timecode    uint64
	SimpleBlock []ebml.Block
}

type segment struct {
	Info    info
	Tracks  tracks
	Cluster []cluster
}

type container struct {
	Header  ebmlHeader `ebml:"EBML"`
	Segment segment
}

// WebM describes a WebM file with one video track and one block per cluster.
type WebM struct {
	TimestampScale uint64 // omitted if zero
	Timestamps     []uint64
}

// Bytes renders the file.
func (w WebM) Bytes() ([]byte, error) {
	data := &container{
		Header: ebmlHeader{
			EBMLVersion:            1,
			EBMLReadVersion:        1,
			EBMLMaxIDLength:        4,
			EBMLMaxSizeLength:      8,
			EBMLDocType:            "webm",
			EBMLDocTypeVersion:     2,
			EBMLDocTypeReadVersion: 2,
		},
		Segment: segment{
			Info: info{
				TimecodeScale: w.TimestampScale,
				MuxingApp:     "mediatest",
				WritingApp:    "mediatest",
			},
			Tracks: tracks{
				TrackEntry: []trackEntry{
					{TrackNumber: 1, TrackUID: 1, CodecID: "V_VP8", TrackType: 1},
				},
			},
		},
	}
	for _, ts := range w.Timestamps {
		data.Segment.Cluster = append(data.Segment.Cluster, cluster{
			Timecode: ts,
			SimpleBlock: []ebml.Block{
				{
					TrackNumber: 1,
					Keyframe:    true,
					Lacing:      ebml.LacingNo,
					Data:        [][]byte{{0x30, 0x31, 0x32}},
				},
			},
		})
	}
	buf := &bytes.Buffer{}
	if err := ebml.Marshal(data, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
