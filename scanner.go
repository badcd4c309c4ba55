// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
)

// ItemKind identifies which of the four record variants a descriptor
// refers to.
type ItemKind int

const (
	// KindUndefined is a descriptor the scanner recorded structurally
	// (e.g. a HASH record) without emitting a user-visible item.
	KindUndefined ItemKind = iota
	KindURL
	KindRedirected
	KindLeak
)

func (k ItemKind) String() string {
	switch k {
	case KindURL:
		return "URL"
	case KindRedirected:
		return "REDR"
	case KindLeak:
		return "LEAK"
	default:
		return "Undefined"
	}
}

// ItemFlags are the per-descriptor bits the scanner and decoders use to
// mark a record's provenance and reliability.
type ItemFlags uint8

const (
	// FlagRecovered marks a descriptor found in unallocated space rather
	// than reached through the live allocation bitmap.
	FlagRecovered ItemFlags = 1 << iota

	// FlagPartial marks a recovered fragment truncated by a subsequent
	// record; decoders soften their integrity checks for these.
	FlagPartial

	// FlagTainted marks a live item whose declared block count is
	// suspect after downstream scanning detected an overlap.
	FlagTainted
)

func (f ItemFlags) has(bit ItemFlags) bool { return f&bit != 0 }

// ItemDescriptor is one in-memory index entry produced by the scanner.
type ItemDescriptor struct {
	Kind       ItemKind
	FileOffset uint64
	RecordSize uint32
	Flags      ItemFlags
}

const recordHeaderPeekSize = 8

// ScanResult holds the two ordered lists the scanner produces.
type ScanResult struct {
	Live      []ItemDescriptor
	Recovered []ItemDescriptor
}

// classifySignature maps a 4-byte signature to its item kind and whether it
// announces a new record the scanner must track.
func classifySignature(sig []byte) (kind ItemKind, isNew bool) {
	switch string(sig) {
	case "URL ":
		return KindURL, true
	case "REDR":
		return KindRedirected, true
	case "LEAK":
		return KindLeak, true
	case "HASH":
		return KindUndefined, true
	default:
		return KindUndefined, false
	}
}

// ScanRecords performs the linear block-by-block scan of the record
// region described in spec.md §4.5. It is I/O-fatal (a ByteSource failure
// aborts the scan) but header-tolerant: a single malformed record header
// never aborts the scan, it just advances one block.
func ScanRecords(src ByteSource, start, fileSize uint64, blockSize uint16, unallocated *UnallocatedRanges, abort func() bool) (*ScanResult, error) {
	result := &ScanResult{}

	pos := start
	var remaining uint64
	currentKind := KindUndefined
	var pendingStart uint64
	var lastLiveIdx = -1

	peek := make([]byte, recordHeaderPeekSize)

	for pos < fileSize {
		if abort != nil && abort() {
			return nil, newParseError(KindAborted, pos, ErrAborted)
		}

		if err := readAt(src, pos, peek); err != nil {
			return nil, err
		}

		newKind, isNew := classifySignature(peek[0:4])
		numBlocksField := binary.LittleEndian.Uint32(peek[4:8])

		if isNew && remaining > 0 {
			// The previously announced recovered record was truncated by
			// this new record. Emit the partial prefix and taint whatever
			// live item preceded it.
			prefixSize := pos - pendingStart
			if prefixSize > 0 {
				result.Recovered = append(result.Recovered, ItemDescriptor{
					Kind:       currentKind,
					FileOffset: pendingStart,
					RecordSize: uint32(prefixSize),
					Flags:      FlagRecovered | FlagPartial,
				})
			}
			if lastLiveIdx >= 0 {
				result.Live[lastLiveIdx].Flags |= FlagTainted
			}
			remaining = 0
			currentKind = KindUndefined
		}

		numBlocks := numBlocksField
		maxBlocks := (fileSize - pos) / uint64(blockSize)
		if numBlocks == 0 || uint64(numBlocks) > maxBlocks {
			numBlocks = 1
		}
		recordSize := uint64(numBlocks) * uint64(blockSize)

		_, isUnallocated := unallocated.Contains(pos)

		switch {
		case !isUnallocated && isNew && newKind != KindUndefined:
			result.Live = append(result.Live, ItemDescriptor{
				Kind:       newKind,
				FileOffset: pos,
				RecordSize: uint32(recordSize),
				Flags:      0,
			})
			lastLiveIdx = len(result.Live) - 1
			pos += recordSize
			currentKind = KindUndefined
			remaining = 0

		case !isUnallocated && (!isNew || newKind == KindUndefined):
			// Allocated but no recognized new record (includes HASH,
			// which is metadata and produces no item).
			pos += uint64(blockSize)

		case isUnallocated:
			if remaining == 0 {
				if newKind == KindUndefined {
					// Nothing pending and no URL/REDR/LEAK header here
					// (unrecognized bytes or a HASH record): one-block stride.
					pos += uint64(blockSize)
					break
				}
				remaining = recordSize
				currentKind = newKind
				pendingStart = pos
			}
			pos += uint64(blockSize)
			if remaining >= uint64(blockSize) {
				remaining -= uint64(blockSize)
			} else {
				remaining = 0
			}
			if remaining == 0 {
				result.Recovered = append(result.Recovered, ItemDescriptor{
					Kind:       currentKind,
					FileOffset: pendingStart,
					RecordSize: uint32(pos - pendingStart),
					Flags:      FlagRecovered,
				})
				currentKind = KindUndefined
			}
		}
	}

	if remaining > 0 && lastLiveIdx >= 0 {
		result.Live[lastLiveIdx].Flags |= FlagTainted
	}

	return result, nil
}
