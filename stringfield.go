// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"bytes"
	"unicode/utf16"
)

// StringField is a codepage-aware, length-bounded string holder. It keeps
// the raw bytes captured from the record plus the codepage they were
// captured under, and converts on demand rather than eagerly -- the
// teacher's DecodeUTF16String in helper.go follows the same "convert only
// when asked" shape for PE version-resource strings.
type StringField struct {
	raw      []byte
	codepage int
}

// NewStringField wraps raw bytes (without the trailing NUL) under codepage
// cp.
func NewStringField(raw []byte, cp int) StringField {
	return StringField{raw: raw, codepage: cp}
}

// Len returns the number of raw bytes held (excluding any terminator).
func (s StringField) Len() int {
	return len(s.raw)
}

// Raw returns the raw captured bytes.
func (s StringField) Raw() []byte {
	return s.raw
}

// Codepage returns the codepage the raw bytes were captured under.
func (s StringField) Codepage() int {
	return s.codepage
}

// UTF8 decodes the raw bytes to a UTF-8 string under the field's codepage.
func (s StringField) UTF8() (string, error) {
	return decodeCodepageBytes(s.raw, s.codepage)
}

// UTF8Size returns the byte length of the NUL-terminated UTF-8 transcoding,
// i.e. len(utf8string)+1.
func (s StringField) UTF8Size() (int, error) {
	str, err := s.UTF8()
	if err != nil {
		return 0, err
	}
	return len(str) + 1, nil
}

// CopyUTF8 copies the NUL-terminated UTF-8 transcoding into dst. dst must
// be at least UTF8Size() bytes; a smaller buffer fails with
// ErrBufferTooSmall.
func (s StringField) CopyUTF8(dst []byte) (int, error) {
	str, err := s.UTF8()
	if err != nil {
		return 0, err
	}
	needed := len(str) + 1
	if len(dst) < needed {
		return 0, ErrBufferTooSmall
	}
	n := copy(dst, str)
	dst[n] = 0
	return needed, nil
}

// UTF16Size returns the length in uint16 code units of the NUL-terminated
// UTF-16 transcoding.
func (s StringField) UTF16Size() (int, error) {
	str, err := s.UTF8()
	if err != nil {
		return 0, err
	}
	return len(utf16.Encode([]rune(str))) + 1, nil
}

// CopyUTF16 copies the NUL-terminated UTF-16LE transcoding into dst (one
// uint16 per element). dst must be at least UTF16Size() elements.
func (s StringField) CopyUTF16(dst []uint16) (int, error) {
	str, err := s.UTF8()
	if err != nil {
		return 0, err
	}
	units := utf16.Encode([]rune(str))
	needed := len(units) + 1
	if len(dst) < needed {
		return 0, ErrBufferTooSmall
	}
	n := copy(dst, units)
	dst[n] = 0
	return needed, nil
}

// sliceBoundedString extracts the NUL-terminated (or partial-unterminated)
// string starting at offset within buf, per spec.md §4.6's string slicing
// rule shared by URL/REDR/LEAK decoders.
func sliceBoundedString(buf []byte, offset uint32, partial bool) ([]byte, error) {
	if offset == 0 {
		return nil, nil
	}
	if int(offset) >= len(buf) {
		return nil, newParseError(KindValueOutOfBounds, uint64(offset), ErrStringOffset)
	}

	tail := buf[offset:]
	idx := bytes.IndexByte(tail, 0)
	if idx < 0 {
		if partial {
			return tail, nil
		}
		return nil, newParseError(KindInvalidData, uint64(offset), ErrStringUnterminated)
	}
	return tail[:idx], nil
}
