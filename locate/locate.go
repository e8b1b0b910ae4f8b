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

// Package locate selects the Locator of a media file and runs it.
package locate

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
	"github.com/seqsense/msesegment/isobmff"
	"github.com/seqsense/msesegment/matroska"
)

var extensions = map[string]msesegment.Locator{
	".mp4":  isobmff.Locator{},
	".m4s":  isobmff.Locator{},
	".m4a":  isobmff.Locator{},
	".m4v":  isobmff.Locator{},
	".cmfv": isobmff.Locator{},
	".cmfa": isobmff.Locator{},
	".webm": matroska.Locator{},
	".mkv":  matroska.Locator{},
	".mka":  matroska.Locator{},
}

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

var isobmffTypes = []isobmff.Type{
	isobmff.TypeFtyp,
	isobmff.TypeStyp,
	isobmff.TypeMoov,
	isobmff.TypeMoof,
}

// ForName returns the Locator selected by the extension of name.
// name may be a file path or a slash separated URL.
func ForName(name string) (msesegment.Locator, bool) {
	l, ok := extensions[strings.ToLower(path.Ext(name))]
	return l, ok
}

// Sniff returns the Locator selected by the leading bytes of r.
// The cursor of r is not moved.
func Sniff(r *bytereader.Reader) (msesegment.Locator, bool) {
	head, err := r.ReadAt(r.Start(), 8)
	if err != nil || len(head) < 4 {
		return nil, false
	}
	if bytes.Equal(head[:4], ebmlMagic) {
		return matroska.Locator{}, true
	}
	if len(head) < 8 {
		return nil, false
	}
	typ := isobmff.Type(bytereader.Uint(head[4:8]))
	for _, t := range isobmffTypes {
		if typ == t {
			return isobmff.Locator{}, true
		}
	}
	return nil, false
}

// Opener opens a named media file.
type Opener interface {
	Open(ctx context.Context, name string) (*bytereader.Reader, error)
}

// FileOpener opens local files.
type FileOpener struct{}

func (FileOpener) Open(_ context.Context, name string) (*bytereader.Reader, error) {
	return bytereader.Open(name)
}

// FindSegments opens name and returns its media segments. The Locator is
// selected by extension, falling back to the file signature.
func FindSegments(ctx context.Context, o Opener, name string) (msesegment.MediaSegments, error) {
	r, err := o.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	l, ok := ForName(name)
	if !ok {
		if l, ok = Sniff(r); !ok {
			r.Close()
			return nil, fmt.Errorf("%s: %w", name, msesegment.ErrUnsupported)
		}
		msesegment.Logger().Debugf("%s: selected %T by signature", name, l)
	}
	segments, err := l.FindMediaSegments(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return segments, nil
}

// FindFile returns the media segments of a local file.
func FindFile(name string) (msesegment.MediaSegments, error) {
	return FindSegments(context.Background(), FileOpener{}, name)
}
