// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
)

const (
	cacheDirectoryCountSize = 4
	cacheDirectoryEntrySize = 12
	cacheDirectoryNameSize  = 8
)

// CacheDirectory describes one 8-character cache subdirectory entry. The
// core only surfaces the name and the on-disk cached-file counter; it never
// touches the cached payload files themselves.
type CacheDirectory struct {
	// Name is the 8-byte ASCII directory name, not NUL-terminated on disk.
	Name [8]byte

	// CachedFileCount is the on-disk "number of cached files" counter
	// recorded against this directory.
	CachedFileCount uint32
}

// NullTerminatedName returns the 9-byte NUL-appended in-memory form of the
// directory name.
func (d CacheDirectory) NullTerminatedName() [9]byte {
	var out [9]byte
	copy(out[:8], d.Name[:])
	return out
}

// CacheDirectoryTable is the fixed table of cache directory descriptors
// immediately following the file header.
type CacheDirectoryTable struct {
	Directories []CacheDirectory
}

// ReadCacheDirectoryTable reads a 4-byte LE count followed by count 12-byte
// entries, bounded by maxAlloc.
func ReadCacheDirectoryTable(src ByteSource, at uint64, maxAlloc uint64) (*CacheDirectoryTable, error) {
	countBuf := make([]byte, cacheDirectoryCountSize)
	if err := readAt(src, at, countBuf); err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(countBuf)

	tableSize := uint64(cacheDirectoryCountSize) + uint64(count)*cacheDirectoryEntrySize
	if tableSize > maxAlloc {
		return nil, newParseError(KindValueOutOfBounds, at, ErrDirectoryTableSize)
	}

	dirs := make([]CacheDirectory, 0, count)
	offset := at + cacheDirectoryCountSize
	entry := make([]byte, cacheDirectoryEntrySize)
	for i := uint32(0); i < count; i++ {
		if err := readAt(src, offset, entry); err != nil {
			return nil, err
		}

		var d CacheDirectory
		d.CachedFileCount = binary.LittleEndian.Uint32(entry[0:4])
		copy(d.Name[:], entry[4:4+cacheDirectoryNameSize])
		dirs = append(dirs, d)

		offset += cacheDirectoryEntrySize
	}

	return &CacheDirectoryTable{Directories: dirs}, nil
}

// LookupName returns the NUL-appended name of directory i.
func (t *CacheDirectoryTable) LookupName(i int) ([9]byte, error) {
	if i < 0 || i >= len(t.Directories) {
		return [9]byte{}, newParseError(KindInvalidArgument, 0, ErrNoSuchItem)
	}
	return t.Directories[i].NullTerminatedName(), nil
}

// Len returns the number of cache directories in the table.
func (t *CacheDirectoryTable) Len() int {
	return len(t.Directories)
}
