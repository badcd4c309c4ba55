// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
)

const (
	// FileHeaderSize is the fixed size in bytes of the file header block.
	FileHeaderSize = 72

	signatureText = "Client UrlCache MMF Ver "
)

// FileHeader is the fixed 72-byte block at offset 0 of every index.dat.
type FileHeader struct {
	MajorVersion     uint8
	MinorVersion     uint8
	FileSize         uint64
	HashTableOffset  uint32
	TotalBlocks      uint32
	AllocatedBlocks  uint32
}

// ReadFileHeader reads and validates the file header at the given offset.
func ReadFileHeader(src ByteSource, at uint64) (*FileHeader, error) {
	buf := make([]byte, FileHeaderSize)
	if err := readAt(src, at, buf); err != nil {
		return nil, err
	}

	if string(buf[0:24]) != signatureText {
		return nil, newParseError(KindInvalidFormat, at, ErrInvalidSignature)
	}

	major, minor, ok := parseVersionDigits(buf[24], buf[25], buf[26], buf[27])
	if !ok {
		return nil, newParseError(KindInvalidFormat, at, ErrInvalidSignature)
	}

	if !isSupportedVersion(major, minor) {
		return nil, newParseError(KindInvalidFormat, at, ErrInvalidFormatVersion)
	}

	h := &FileHeader{
		MajorVersion:    major,
		MinorVersion:    minor,
		FileSize:        uint64(binary.LittleEndian.Uint32(buf[28:32])),
		HashTableOffset: binary.LittleEndian.Uint32(buf[32:36]),
		TotalBlocks:     binary.LittleEndian.Uint32(buf[36:40]),
		AllocatedBlocks: binary.LittleEndian.Uint32(buf[40:44]),
	}

	if uint64(h.HashTableOffset) >= h.FileSize {
		return nil, newParseError(KindInvalidFormat, at, ErrHashTableOffset)
	}

	return h, nil
}

// parseVersionDigits decodes the "X.Y\0" pattern at signature bytes 24..28.
func parseVersionDigits(majorByte, dot, minorByte, nul byte) (major, minor uint8, ok bool) {
	if majorByte < '0' || majorByte > '9' {
		return 0, 0, false
	}
	if dot != '.' {
		return 0, 0, false
	}
	if minorByte < '0' || minorByte > '9' {
		return 0, 0, false
	}
	if nul != 0 {
		return 0, 0, false
	}
	return majorByte - '0', minorByte - '0', true
}

func isSupportedVersion(major, minor uint8) bool {
	return (major == 4 && minor == 7) || (major == 5 && minor == 2)
}

// IsV52 reports whether the header declares the 5.2 on-disk layout
// (narrower expiration_time field, FAT-encoded rather than FILETIME).
func (h *FileHeader) IsV52() bool {
	return h.MajorVersion == 5 && h.MinorVersion == 2
}
