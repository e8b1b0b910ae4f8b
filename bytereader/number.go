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

package bytereader

import (
	"fmt"
	"io"
)

// Uint decodes a big-endian unsigned integer of any length.
// Bytes beyond the lowest eight shift out of the result.
func Uint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// Int decodes a big-endian two's complement integer. len(b) must be 1, 2, 4 or 8.
func Int(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(Uint(b)))
	case 4:
		return int64(int32(Uint(b)))
	case 8:
		return int64(Uint(b))
	}
	panic(fmt.Sprintf("bytereader: signed integer of %d bytes", len(b)))
}

// ReadFull reads exactly n bytes at the cursor.
// A region ending before n bytes yields io.ErrUnexpectedEOF.
func (r *Reader) ReadFull(n int64) ([]byte, error) {
	b, err := r.Read(n)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) < n {
		return b, io.ErrUnexpectedEOF
	}
	return b, nil
}

// ReadUint reads an n byte big-endian unsigned integer at the cursor.
func (r *Reader) ReadUint(n int64) (uint64, error) {
	b, err := r.ReadFull(n)
	if err != nil {
		return 0, err
	}
	return Uint(b), nil
}

// ReadInt reads an n byte big-endian signed integer at the cursor.
func (r *Reader) ReadInt(n int64) (int64, error) {
	b, err := r.ReadFull(n)
	if err != nil {
		return 0, err
	}
	return Int(b), nil
}
