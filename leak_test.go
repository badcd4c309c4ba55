// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
	"testing"
)

func buildLEAKRecord(cachedFileSize uint32, cacheDirIndex uint8, filename string) []byte {
	filenameOffset := uint32(leakHeaderSize)
	buf := make([]byte, filenameOffset+uint32(len(filename))+1)
	copy(buf[0:4], "LEAK")
	binary.LittleEndian.PutUint32(buf[leakCachedFileSizeOffset:leakCachedFileSizeOffset+4], cachedFileSize)
	buf[leakCacheDirIndexOffset] = cacheDirIndex
	binary.LittleEndian.PutUint32(buf[leakFilenameOffsetOffset:leakFilenameOffsetOffset+4], filenameOffset)
	copy(buf[filenameOffset:], filename)
	return buf
}

func TestDecodeLEAKRecordScenario(t *testing.T) {
	buf := buildLEAKRecord(4096, 3, "leaked0001.dat")
	l, err := decodeLEAKRecord(buf, false)
	if err != nil {
		t.Fatalf("decodeLEAKRecord failed: %v", err)
	}
	if l.CachedFileSize != 4096 {
		t.Errorf("got cached file size %d, want 4096", l.CachedFileSize)
	}
	if l.CacheDirectoryIndex != 3 || !l.HasCacheDirectory() {
		t.Errorf("got cache directory index %d, HasCacheDirectory()=%v", l.CacheDirectoryIndex, l.HasCacheDirectory())
	}
	name, err := l.Filename.UTF8()
	if err != nil || name != "leaked0001.dat" {
		t.Errorf("got filename %q, err %v", name, err)
	}
}

func TestDecodeLEAKRecordNoCacheDirectory(t *testing.T) {
	buf := buildLEAKRecord(0, 0xFE, "orphan.dat")
	l, err := decodeLEAKRecord(buf, false)
	if err != nil {
		t.Fatalf("decodeLEAKRecord failed: %v", err)
	}
	if l.HasCacheDirectory() {
		t.Error("expected HasCacheDirectory() false for sentinel index 0xFE")
	}
}

func TestDecodeLEAKRecordRejectsBadSignature(t *testing.T) {
	buf := buildLEAKRecord(0, 0, "x.dat")
	copy(buf[0:4], "XXXX")
	if _, err := decodeLEAKRecord(buf, false); err == nil {
		t.Fatal("expected error for wrong record signature")
	}
}

func TestDecodeLEAKRecordStrictTooSmall(t *testing.T) {
	buf := make([]byte, 8)
	copy(buf[0:4], "LEAK")
	if _, err := decodeLEAKRecord(buf, false); err == nil {
		t.Fatal("expected error for truncated LEAK record in non-partial mode")
	}
}
