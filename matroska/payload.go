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

package matroska

import (
	"fmt"
	"strings"

	"github.com/seqsense/msesegment"
)

// DefaultTimestampScale is the TimestampScale in nanoseconds used when Info
// does not carry one.
const DefaultTimestampScale = 1000000

// Header is the decoded EBML header.
type Header struct {
	DocType string
}

// Info is the decoded segment Info element.
type Info struct {
	TimestampScale uint64
}

// Cluster is the decoded position and timestamp of a Cluster element.
type Cluster struct {
	Offset    int64
	Size      int64
	Timestamp uint64
}

// DecodeHeader decodes an EBML header element.
func DecodeHeader(e Element) (Header, error) {
	if e.ID != IDEBML {
		return Header{}, formatErr(e.Offset, e.ID.String(), msesegment.ErrUnexpectedElement)
	}
	dt, ok, err := Find(e.Content(), IDDocType)
	if err != nil {
		return Header{}, err
	}
	if !ok {
		// DocType defaults to matroska.
		return Header{DocType: "matroska"}, nil
	}
	b, err := dt.Content().ReadAll()
	if err != nil {
		return Header{}, err
	}
	return Header{DocType: strings.TrimRight(string(b), "\x00")}, nil
}

// DecodeInfo decodes a segment Info element.
func DecodeInfo(e Element) (Info, error) {
	if e.ID != IDInfo {
		return Info{}, formatErr(e.Offset, e.ID.String(), msesegment.ErrUnexpectedElement)
	}
	ts, ok, err := Find(e.Content(), IDTimestampScale)
	if err != nil {
		return Info{}, err
	}
	if !ok {
		return Info{TimestampScale: DefaultTimestampScale}, nil
	}
	scale, err := readUint(ts, DefaultTimestampScale)
	if err != nil {
		return Info{}, err
	}
	return Info{TimestampScale: scale}, nil
}

// DecodeCluster decodes the timestamp of a Cluster element.
func DecodeCluster(e Element) (Cluster, error) {
	if e.ID != IDCluster {
		return Cluster{}, formatErr(e.Offset, e.ID.String(), msesegment.ErrUnexpectedElement)
	}
	ts, ok, err := Find(e.Content(), IDTimestamp)
	if err != nil {
		return Cluster{}, err
	}
	if !ok {
		return Cluster{}, formatErr(e.Offset, "Timestamp in Cluster", msesegment.ErrMissingBox)
	}
	v, err := readUint(ts, 0)
	if err != nil {
		return Cluster{}, err
	}
	return Cluster{Offset: e.Offset, Size: e.FullSize(), Timestamp: v}, nil
}

// readUint reads the content of an unsigned integer element.
// Empty content means def.
func readUint(e Element, def uint64) (uint64, error) {
	switch {
	case e.ContentSize == 0:
		return def, nil
	case e.ContentSize > 8:
		return 0, formatErr(e.Offset, fmt.Sprintf("%s of %d bytes", e.ID, e.ContentSize), msesegment.ErrIntegerTooLarge)
	}
	return e.Content().ReadUint(e.ContentSize)
}
