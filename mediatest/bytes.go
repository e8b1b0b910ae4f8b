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

// Package mediatest builds small media files for tests.
package mediatest

import (
	"encoding/binary"
	"errors"
	"io"
)

// Box returns an ISOBMFF box with a 32-bit size header.
func Box(typ string, parts ...[]byte) []byte {
	body := concat(parts...)
	b := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(b, uint32(8+len(body)))
	copy(b[4:], typ)
	return append(b, body...)
}

// LargeBox returns an ISOBMFF box with a 64-bit largesize header.
func LargeBox(typ string, parts ...[]byte) []byte {
	body := concat(parts...)
	b := make([]byte, 16, 16+len(body))
	binary.BigEndian.PutUint32(b, 1)
	copy(b[4:], typ)
	binary.BigEndian.PutUint64(b[8:], uint64(16+len(body)))
	return append(b, body...)
}

// FullBox returns an ISOBMFF full box.
func FullBox(typ string, version uint8, flags uint32, parts ...[]byte) []byte {
	vf := U32(uint32(version)<<24 | flags&0xffffff)
	return Box(typ, append([][]byte{vf}, parts...)...)
}

func U16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

func U32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func U64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

// Element returns an EBML element with a minimal length size field.
func Element(id uint64, parts ...[]byte) []byte {
	body := concat(parts...)
	b := UintBytes(id)
	b = append(b, Vint(uint64(len(body)))...)
	return append(b, body...)
}

// UintBytes returns v big-endian in as few bytes as possible.
func UintBytes(v uint64) []byte {
	n := 1
	for x := v >> 8; x != 0; x >>= 8 {
		n++
	}
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// Vint encodes v as an EBML variable length integer of minimal width.
func Vint(v uint64) []byte {
	for w := 1; w <= 8; w++ {
		// all ones is reserved for unknown size
		if v < 1<<(7*w)-1 {
			return VintWidth(v, w)
		}
	}
	panic("mediatest: value too large for vint")
}

// VintWidth encodes v as an EBML variable length integer of w bytes.
func VintWidth(v uint64, w int) []byte {
	b := make([]byte, w)
	for i := w - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	b[0] |= 0x80 >> (w - 1)
	return b
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	b   []byte
	pos int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.b)) {
		s.b = append(s.b, make([]byte, end-int64(len(s.b)))...)
	}
	copy(s.b[s.pos:], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += s.pos
	case io.SeekEnd:
		offset += int64(len(s.b))
	default:
		return 0, errors.New("mediatest: invalid whence")
	}
	if offset < 0 {
		return 0, errors.New("mediatest: negative position")
	}
	s.pos = offset
	return offset, nil
}

func (s *seekBuffer) Bytes() []byte {
	return s.b
}
