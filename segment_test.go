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
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var ratComparer = cmp.Comparer(func(a, b *big.Rat) bool {
	return a.Cmp(b) == 0
})

func TestMediaSegments_Sort(t *testing.T) {
	l := MediaSegments{
		{Offset: 300, Size: 100, Time: big.NewRat(2, 1)},
		{Offset: 100, Size: 100, Time: big.NewRat(0, 1)},
		{Offset: 200, Size: 100, Time: big.NewRat(1, 1)},
	}
	l.Sort()

	expected := MediaSegments{
		{Offset: 100, Size: 100, Time: big.NewRat(0, 1)},
		{Offset: 200, Size: 100, Time: big.NewRat(1, 1)},
		{Offset: 300, Size: 100, Time: big.NewRat(2, 1)},
	}
	if diff := cmp.Diff(expected, l, ratComparer); diff != "" {
		t.Errorf("Unexpected order (-expected +actual):\n%s", diff)
	}
	if l.InitSize() != 100 {
		t.Errorf("Expected init size 100, got %d", l.InitSize())
	}
	if l.End() != 400 {
		t.Errorf("Expected end 400, got %d", l.End())
	}
}

func TestMediaSegments_Validate(t *testing.T) {
	testCases := map[string]struct {
		segments MediaSegments
		err      bool
	}{
		"Contiguous": {
			segments: MediaSegments{
				{Offset: 10, Size: 5},
				{Offset: 15, Size: 7},
				{Offset: 22, Size: 1},
			},
		},
		"Single": {
			segments: MediaSegments{{Offset: 10, Size: 5}},
		},
		"Gap": {
			segments: MediaSegments{
				{Offset: 10, Size: 5},
				{Offset: 16, Size: 7},
			},
			err: true,
		},
		"Overlap": {
			segments: MediaSegments{
				{Offset: 10, Size: 5},
				{Offset: 14, Size: 7},
			},
			err: true,
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			err := tt.segments.Validate()
			if tt.err != (err != nil) {
				t.Errorf("Expected error: %v, got %v", tt.err, err)
			}
		})
	}

	t.Run("Empty", func(t *testing.T) {
		if err := (MediaSegments{}).Validate(); !errors.Is(err, ErrNoSegments) {
			t.Errorf("Expected %v, got %v", ErrNoSegments, err)
		}
	})
}

func TestMediaSegment_JSON(t *testing.T) {
	s := MediaSegment{Offset: 1234, Size: 567, Time: big.NewRat(1, 3)}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	const expected = `{"offset":1234,"size":567,"time":0.3333333333333333}`
	if string(b) != expected {
		t.Errorf("Expected %s, got %s", expected, string(b))
	}

	var decoded MediaSegment
	if err := json.Unmarshal([]byte(`{"offset":10,"size":20,"time":1.5}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(MediaSegment{Offset: 10, Size: 20, Time: big.NewRat(3, 2)}, decoded, ratComparer); diff != "" {
		t.Errorf("Unexpected segment (-expected +actual):\n%s", diff)
	}
}
