// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBlockSize is the fixed block size the v4.7/v5.2 layouts use.
	DefaultBlockSize uint16 = 128

	// BitmapOffset is the fixed on-disk offset of the allocation bitmap.
	BitmapOffset uint64 = 0x250

	// BlockRegionOffset is the fixed on-disk offset where block 0 of the
	// record region begins.
	BlockRegionOffset uint64 = 0x4000
)

// Options configures a File before Open, mirroring the teacher's
// Options{Fast, SectionEntropy, MaxCOFFSymbolsCount, ...} passed to
// pe.New/pe.NewBytes.
type Options struct {
	// Codepage is the ASCII codepage used to decode record strings.
	// Defaults to DefaultCodepage (Windows-1252) when zero.
	Codepage int

	// MaxAllocSize bounds every allocation derived from on-disk sizes.
	// Defaults to MaxAllocDefault when zero.
	MaxAllocSize uint64

	// BlockSize overrides DefaultBlockSize; only needed for recovered
	// test fixtures built with a non-standard block size.
	BlockSize uint16

	// Logger receives structured log entries at non-fatal recovery
	// points. Defaults to logrus.StandardLogger() when nil.
	Logger *logrus.Logger
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.Codepage == 0 {
		out.Codepage = DefaultCodepage
	}
	if out.MaxAllocSize == 0 {
		out.MaxAllocSize = MaxAllocDefault
	}
	if out.BlockSize == 0 {
		out.BlockSize = DefaultBlockSize
	}
	if out.Logger == nil {
		out.Logger = logrus.StandardLogger()
	}
	return &out
}

// Warning is a non-fatal finding surfaced during Open or item
// materialization -- the msiecf equivalent of the teacher's
// File.Anomalies []string sidecar, but typed so tooling can filter by
// stage.
type Warning struct {
	Stage   string
	Message string
}

// File owns the fully-parsed in-memory index for one index.dat: the
// header, cache directory table, unallocated ranges, and the live/
// recovered descriptor lists. It is immutable after Open; codepage is the
// only post-open mutable setting, guarded by mu.
type File struct {
	src ByteSource

	header    *FileHeader
	dirTable  *CacheDirectoryTable
	unalloc   *UnallocatedRanges
	hashChain *HashChainResult

	live      []ItemDescriptor
	recovered []ItemDescriptor

	blockSize    uint16
	maxAllocSize uint64

	warnings []Warning

	logger *logrus.Logger

	mu       sync.RWMutex
	codepage int

	aborted int32
}

// Open parses src as a fully-opened File: header, cache directory table,
// allocation bitmap, hash chain validation, and the full record scan.
func Open(src ByteSource, opts *Options) (*File, error) {
	o := opts.withDefaults()
	if !IsSupportedCodepage(o.Codepage) {
		return nil, newParseError(KindUnsupportedValue, 0, ErrUnsupportedCodepage)
	}

	f := &File{
		src:          src,
		blockSize:    o.BlockSize,
		maxAllocSize: o.MaxAllocSize,
		logger:       o.Logger,
		codepage:     o.Codepage,
	}

	header, err := ReadFileHeader(src, 0)
	if err != nil {
		return nil, err
	}
	f.header = header

	if header.FileSize > src.Len() {
		f.logger.WithFields(logrus.Fields{
			"declared": header.FileSize,
			"actual":   src.Len(),
		}).Warn("file_size in header exceeds backing source length")
	}

	dirTable, err := ReadCacheDirectoryTable(src, FileHeaderSize, f.maxAllocSize)
	if err != nil {
		return nil, err
	}
	f.dirTable = dirTable

	fileSize := header.FileSize
	if fileSize == 0 || fileSize > src.Len() {
		fileSize = src.Len()
	}

	unalloc, calculated, err := ScanBitmap(src, BitmapOffset, fileSize, BlockRegionOffset, f.blockSize, header.TotalBlocks, header.AllocatedBlocks)
	if err != nil {
		return nil, err
	}
	f.unalloc = unalloc

	if calculated != header.AllocatedBlocks {
		f.addWarning("bitmap", "calculated allocated-block count does not match header value")
		f.logger.WithFields(logrus.Fields{
			"calculated": calculated,
			"stored":     header.AllocatedBlocks,
		}).Warn("allocation bitmap count mismatch")
	}

	if uint64(header.HashTableOffset) != 0 {
		chain, err := WalkHashChain(src, uint64(header.HashTableOffset), f.blockSize, f.maxAllocSize)
		if err != nil {
			f.logger.WithError(err).Warn("hash chain walk failed; scanner remains authoritative")
			f.addWarning("hashchain", err.Error())
		} else {
			f.hashChain = chain
			if chain.FilteredOut > 0 {
				f.addWarning("hashchain", "hash chain contained filtered (empty/sentinel/misaligned) entries")
			}
		}
	}

	abortFn := func() bool { return atomic.LoadInt32(&f.aborted) != 0 }
	scanResult, err := ScanRecords(src, BlockRegionOffset, fileSize, f.blockSize, f.unalloc, abortFn)
	if err != nil {
		return nil, err
	}
	f.live = scanResult.Live
	f.recovered = scanResult.Recovered

	for _, d := range f.live {
		if d.Flags.has(FlagTainted) {
			f.addWarning("scanner", "live item block count is tainted by a later overlapping record")
		}
	}

	return f, nil
}

func (f *File) addWarning(stage, msg string) {
	f.warnings = append(f.warnings, Warning{Stage: stage, Message: msg})
}

// Warnings returns every non-fatal finding collected during Open.
func (f *File) Warnings() []Warning {
	return f.warnings
}

// Size returns the file size recorded in the header.
func (f *File) Size() uint64 { return f.header.FileSize }

// FormatVersion returns (major, minor).
func (f *File) FormatVersion() (uint8, uint8) { return f.header.MajorVersion, f.header.MinorVersion }

// Codepage returns the ASCII codepage currently used to decode strings.
func (f *File) Codepage() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.codepage
}

// SetCodepage changes the codepage used for subsequent string decoding.
// Only the fixed whitelist in codepage.go is accepted.
func (f *File) SetCodepage(cp int) error {
	if !IsSupportedCodepage(cp) {
		return newParseError(KindUnsupportedValue, 0, ErrUnsupportedCodepage)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codepage = cp
	return nil
}

// NumCacheDirectories returns the number of cache directory entries.
func (f *File) NumCacheDirectories() int { return f.dirTable.Len() }

// CacheDirectoryName returns the NUL-terminated name of directory i.
func (f *File) CacheDirectoryName(i int) ([9]byte, error) { return f.dirTable.LookupName(i) }

// NumUnallocatedBlocks returns the number of unallocated byte ranges.
func (f *File) NumUnallocatedBlocks() int { return f.unalloc.Len() }

// UnallocatedBlock returns the i'th unallocated (offset, size) range.
func (f *File) UnallocatedBlock(i int) (uint64, uint64) {
	r := f.unalloc.At(i)
	return r.Offset, r.Length
}

// NumItems returns the number of live items.
func (f *File) NumItems() int { return len(f.live) }

// NumRecoveredItems returns the number of recovered items.
func (f *File) NumRecoveredItems() int { return len(f.recovered) }

// Item materializes the i'th live item, decoding its record.
func (f *File) Item(i int) (*Item, error) {
	if i < 0 || i >= len(f.live) {
		return nil, newParseError(KindInvalidArgument, 0, ErrNoSuchItem)
	}
	return f.decodeDescriptor(f.live[i])
}

// RecoveredItem materializes the i'th recovered item, decoding its record.
func (f *File) RecoveredItem(i int) (*Item, error) {
	if i < 0 || i >= len(f.recovered) {
		return nil, newParseError(KindInvalidArgument, 0, ErrNoSuchItem)
	}
	return f.decodeDescriptor(f.recovered[i])
}

func (f *File) decodeDescriptor(d ItemDescriptor) (*Item, error) {
	if atomic.LoadInt32(&f.aborted) != 0 {
		return nil, newParseError(KindAborted, d.FileOffset, ErrAborted)
	}
	major, minor := f.header.MajorVersion, f.header.MinorVersion
	item, err := decodeItem(f.src, d, major, minor, f.blockSize, f.maxAllocSize)
	if err != nil {
		return nil, err
	}

	cp := f.Codepage()
	if item.URL != nil {
		if item.URL.Location != nil {
			*item.URL.Location = NewStringField(item.URL.Location.Raw(), cp)
		}
		if item.URL.Filename != nil {
			*item.URL.Filename = NewStringField(item.URL.Filename.Raw(), cp)
		}
	}
	if item.REDR != nil && item.REDR.Location != nil {
		*item.REDR.Location = NewStringField(item.REDR.Location.Raw(), cp)
	}
	if item.LEAK != nil && item.LEAK.Filename != nil {
		*item.LEAK.Filename = NewStringField(item.LEAK.Filename.Raw(), cp)
	}

	return item, nil
}

// SignalAbort sets the cooperative abort flag. Once it is set, every later
// Item and RecoveredItem call fails with Aborted. The record scan in Open
// polls the same flag; the bitmap scan and the hash chain walk do not check
// it. Already-completed work is not affected.
func (f *File) SignalAbort() {
	atomic.StoreInt32(&f.aborted, 1)
}
