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
	"errors"
	"fmt"
)

var (
	ErrUnsupported        = errors.New("unsupported file type")
	ErrTruncated          = errors.New("truncated data")
	ErrMissingBox         = errors.New("required box or element missing")
	ErrUnexpectedElement  = errors.New("unexpected element")
	ErrMultipleTracks     = errors.New("only one track is supported")
	ErrMultipleMediaEdits = errors.New("only one media edit is supported")
	ErrInvalidVint        = errors.New("invalid variable length integer")
	ErrZeroTimescale      = errors.New("zero timescale")
	ErrUnknownSize        = errors.New("unknown element size is not supported")
	ErrIntegerTooLarge    = errors.New("integer wider than 8 bytes")
	ErrNoSegments         = errors.New("no media segments")
)

// FormatError reports malformed or unsupported container data.
type FormatError struct {
	Format string
	Offset int64
	What   string
	Err    error
}

func (e *FormatError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("%s: offset %d: %v", e.Format, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %s at offset %d: %v", e.Format, e.What, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
