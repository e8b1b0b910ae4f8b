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

package msesegment

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/seqsense/msesegment/bytereader"
)

// Locator finds the media segments of one container format.
// Implementations close r before returning, on success and on failure.
type Locator interface {
	FindMediaSegments(r *bytereader.Reader) (MediaSegments, error)
}

// MediaSegment is a header-inclusive byte range of a fragment or cluster
// and its presentation time in seconds.
type MediaSegment struct {
	Offset int64
	Size   int64
	Time   *big.Rat
}

func (s MediaSegment) End() int64 {
	return s.Offset + s.Size
}

func (s MediaSegment) String() string {
	return fmt.Sprintf("offset=%d size=%d time=%s", s.Offset, s.Size, s.Time.FloatString(6))
}

type mediaSegmentJSON struct {
	Offset int64   `json:"offset"`
	Size   int64   `json:"size"`
	Time   float64 `json:"time"`
}

func (s MediaSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(&mediaSegmentJSON{
		Offset: s.Offset,
		Size:   s.Size,
		Time:   Seconds(s.Time),
	})
}

func (s *MediaSegment) UnmarshalJSON(b []byte) error {
	var v mediaSegmentJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	t := new(big.Rat)
	if t.SetFloat64(v.Time) == nil {
		return fmt.Errorf("invalid time: %v", v.Time)
	}
	*s = MediaSegment{Offset: v.Offset, Size: v.Size, Time: t}
	return nil
}

type MediaSegments []MediaSegment

func (l MediaSegments) Len() int {
	return len(l)
}

func (l MediaSegments) Swap(i, j int) {
	l[i], l[j] = l[j], l[i]
}

func (l MediaSegments) Less(i, j int) bool {
	return l[i].Offset < l[j].Offset
}

func (l MediaSegments) Sort() {
	sort.Sort(l)
}

// InitSize is the size of the initialization data preceding the first segment.
func (l MediaSegments) InitSize() int64 {
	if len(l) == 0 {
		return 0
	}
	return l[0].Offset
}

// End returns the end offset of the last segment.
func (l MediaSegments) End() int64 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].End()
}

// Validate checks that segments are non-empty and that each one starts exactly
// where the previous one ends.
func (l MediaSegments) Validate() error {
	if len(l) == 0 {
		return ErrNoSegments
	}
	for i := 1; i < len(l); i++ {
		if l[i].Offset != l[i-1].End() {
			return fmt.Errorf("segment %d at offset %d does not follow segment %d ending at %d",
				i, l[i].Offset, i-1, l[i-1].End())
		}
	}
	return nil
}
