// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
	"testing"
)

func buildHeader(version string, fileSize, hashTableOffset, totalBlocks, allocatedBlocks uint32) []byte {
	buf := make([]byte, FileHeaderSize)
	copy(buf[0:24], "Client UrlCache MMF Ver ")
	copy(buf[24:28], version)
	binary.LittleEndian.PutUint32(buf[28:32], fileSize)
	binary.LittleEndian.PutUint32(buf[32:36], hashTableOffset)
	binary.LittleEndian.PutUint32(buf[36:40], totalBlocks)
	binary.LittleEndian.PutUint32(buf[40:44], allocatedBlocks)
	return buf
}

func TestReadFileHeaderMinimalV52(t *testing.T) {
	buf := buildHeader("5.2\x00", 0x00008000, 0x00004000, 0x00000080, 0x0000003A)
	src := NewSliceSource(buf)

	h, err := ReadFileHeader(src, 0)
	if err != nil {
		t.Fatalf("ReadFileHeader failed: %v", err)
	}
	if h.MajorVersion != 5 || h.MinorVersion != 2 {
		t.Errorf("got version %d.%d, want 5.2", h.MajorVersion, h.MinorVersion)
	}
	if h.FileSize != 0x8000 {
		t.Errorf("got file size 0x%x, want 0x8000", h.FileSize)
	}
}

func TestReadFileHeaderMinimalV47(t *testing.T) {
	buf := buildHeader("4.7\x00", 0x00008000, 0x00004000, 0x00000080, 0x0000003A)
	src := NewSliceSource(buf)

	h, err := ReadFileHeader(src, 0)
	if err != nil {
		t.Fatalf("ReadFileHeader failed: %v", err)
	}
	if h.MajorVersion != 4 || h.MinorVersion != 7 {
		t.Errorf("got version %d.%d, want 4.7", h.MajorVersion, h.MinorVersion)
	}
}

func TestReadFileHeaderBadVersion(t *testing.T) {
	buf := buildHeader("3.0\x00", 0x00008000, 0x00004000, 0x00000080, 0x0000003A)
	src := NewSliceSource(buf)

	_, err := ReadFileHeader(src, 0)
	if err == nil {
		t.Fatal("expected InvalidFormat error for version 3.0, got nil")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != KindInvalidFormat {
		t.Errorf("got %v, want KindInvalidFormat", err)
	}
}

func TestReadFileHeaderSignatureMutations(t *testing.T) {
	good := buildHeader("5.2\x00", 0x8000, 0x4000, 0x80, 0x3A)

	for i := 0; i < 28; i++ {
		mutated := append([]byte(nil), good...)
		mutated[i] ^= 0xFF
		src := NewSliceSource(mutated)
		if _, err := ReadFileHeader(src, 0); err == nil {
			t.Errorf("mutating signature byte %d did not fail parse", i)
		}
	}
}

func TestReadFileHeaderHashTableOffsetTooLarge(t *testing.T) {
	buf := buildHeader("5.2\x00", 0x100, 0x200, 0x80, 0x3A)
	src := NewSliceSource(buf)

	_, err := ReadFileHeader(src, 0)
	if err == nil {
		t.Fatal("expected error when hash_table_offset >= file_size")
	}
}
