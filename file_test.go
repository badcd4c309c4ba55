// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
	"testing"
)

// buildMinimalIndexDat assembles a complete, small synthetic index.dat:
// a v5.2 header, an empty cache directory table, an 8-block bitmap with
// only block 0 allocated, and a single live URL record at block 0.
func buildMinimalIndexDat(t *testing.T) []byte {
	t.Helper()

	const numBlocks = 8
	fileSize := BlockRegionOffset + uint64(numBlocks)*uint64(DefaultBlockSize)

	buf := make([]byte, fileSize)

	copy(buf[0:24], "Client UrlCache MMF Ver ")
	copy(buf[24:28], "5.2\x00")
	binary.LittleEndian.PutUint32(buf[28:32], uint32(fileSize))
	binary.LittleEndian.PutUint32(buf[32:36], 0) // hash_table_offset: none
	binary.LittleEndian.PutUint32(buf[36:40], numBlocks)
	binary.LittleEndian.PutUint32(buf[40:44], 1) // allocated_blocks

	binary.LittleEndian.PutUint32(buf[FileHeaderSize:FileHeaderSize+4], 0) // 0 cache directories

	buf[BitmapOffset] = 0x01 // block 0 allocated, blocks 1-7 unallocated

	rec := buildURLRecord(5, 2, "http://a.example/", "c0001.dat")
	binary.LittleEndian.PutUint32(rec[4:8], 1) // number_of_blocks = 1
	if len(rec) > int(DefaultBlockSize) {
		t.Fatalf("synthetic URL record is %d bytes, too big for one block", len(rec))
	}
	copy(buf[BlockRegionOffset:], rec)

	return buf
}

func TestOpenBytesEndToEnd(t *testing.T) {
	data := buildMinimalIndexDat(t)

	f, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}

	major, minor := f.FormatVersion()
	if major != 5 || minor != 2 {
		t.Errorf("got version %d.%d, want 5.2", major, minor)
	}
	if f.NumCacheDirectories() != 0 {
		t.Errorf("got %d cache directories, want 0", f.NumCacheDirectories())
	}
	if f.NumItems() != 1 {
		t.Fatalf("got %d live items, want 1", f.NumItems())
	}
	if f.NumUnallocatedBlocks() != 1 {
		t.Fatalf("got %d unallocated ranges, want 1", f.NumUnallocatedBlocks())
	}

	offset, length := f.UnallocatedBlock(0)
	wantOffset := BlockRegionOffset + uint64(DefaultBlockSize)
	wantLength := uint64(7) * uint64(DefaultBlockSize)
	if offset != wantOffset || length != wantLength {
		t.Errorf("got unallocated range {%d, %d}, want {%d, %d}", offset, length, wantOffset, wantLength)
	}

	item, err := f.Item(0)
	if err != nil {
		t.Fatalf("Item(0) failed: %v", err)
	}
	if item.Kind() != KindURL || item.Recovered() || item.Partial() || item.Tainted() {
		t.Errorf("got item %+v, want a clean live URL item", item.Descriptor)
	}
	loc, err := item.URL.Location.UTF8()
	if err != nil || loc != "http://a.example/" {
		t.Errorf("got location %q, err %v", loc, err)
	}

	if len(f.Warnings()) != 0 {
		t.Errorf("got warnings %v, want none for a clean fixture", f.Warnings())
	}
}

func TestOpenBytesRejectsBadSignature(t *testing.T) {
	data := buildMinimalIndexDat(t)
	data[0] ^= 0xFF
	if _, err := OpenBytes(data, nil); err == nil {
		t.Fatal("expected error for corrupted file header")
	}
}

func TestSetCodepageRejectsUnknownValue(t *testing.T) {
	data := buildMinimalIndexDat(t)
	f, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	if err := f.SetCodepage(99999); err == nil {
		t.Fatal("expected error for unsupported codepage")
	}
	if err := f.SetCodepage(CodepageWindows1250); err != nil {
		t.Fatalf("SetCodepage failed for a whitelisted codepage: %v", err)
	}
	if f.Codepage() != CodepageWindows1250 {
		t.Errorf("got codepage %d, want %d", f.Codepage(), CodepageWindows1250)
	}
}

func TestSignalAbortStopsReDecoding(t *testing.T) {
	data := buildMinimalIndexDat(t)
	f, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	f.SignalAbort()
	if _, err := f.Item(0); err == nil {
		t.Fatal("expected error decoding an item after SignalAbort")
	}
}
