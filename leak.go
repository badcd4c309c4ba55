// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import "encoding/binary"

const (
	leakCachedFileSizeOffset = 32
	leakCacheDirIndexOffset  = 56
	leakFilenameOffsetOffset = 60
	leakHeaderSize           = 64
)

// LeakValues holds the decoded fields of a LEAK record -- a deferred-delete
// entry for a cached file the cache manager could not remove immediately.
type LeakValues struct {
	CachedFileSize      uint32
	CacheDirectoryIndex uint8
	Filename            *StringField
}

// HasCacheDirectory reports whether CacheDirectoryIndex refers to an entry
// in the cache directory table rather than the "none" sentinels 0xFE/0xFF.
func (l *LeakValues) HasCacheDirectory() bool {
	return l.CacheDirectoryIndex != 0xFE && l.CacheDirectoryIndex != 0xFF
}

// decodeLEAKRecord decodes a LEAK record from buf.
func decodeLEAKRecord(buf []byte, partial bool) (*LeakValues, error) {
	if len(buf) < 4 || string(buf[0:4]) != "LEAK" {
		return nil, newParseError(KindInvalidFormat, 0, ErrRecordSignature)
	}
	if !partial && len(buf) < leakHeaderSize {
		return nil, newParseError(KindValueOutOfBounds, 0, ErrStringOffset)
	}

	l := &LeakValues{}

	if len(buf) >= leakCachedFileSizeOffset+4 {
		l.CachedFileSize = binary.LittleEndian.Uint32(buf[leakCachedFileSizeOffset : leakCachedFileSizeOffset+4])
	}
	if len(buf) > leakCacheDirIndexOffset {
		l.CacheDirectoryIndex = buf[leakCacheDirIndexOffset]
	}

	if len(buf) >= leakFilenameOffsetOffset+4 {
		filenameOffset := binary.LittleEndian.Uint32(buf[leakFilenameOffsetOffset : leakFilenameOffsetOffset+4])
		raw, err := sliceBoundedString(buf, filenameOffset, partial)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			sf := NewStringField(raw, DefaultCodepage)
			l.Filename = &sf
		}
	}

	return l, nil
}
