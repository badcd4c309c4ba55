// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
)

const (
	// MaxHashDepth bounds HASH-chain recursion; chains longer than this,
	// or cyclic chains, are reported rather than followed forever.
	MaxHashDepth = 128

	hashRecordHeaderSize = 16
	hashEntrySize        = 8

	hashBadF00D  = 0x0BADF00D
	hashDeadBeef = 0xDEADBEEF
)

// HashEntry is one (hash, target_offset) pair surfaced from a HASH record,
// after the entry filter has discarded empty slots, sentinels, and
// misaligned targets.
type HashEntry struct {
	Hash         uint32
	TargetOffset uint32
}

// HashChainResult is the structural validation result of walking a HASH
// chain. The scanner never depends on this for correctness (it discovers
// records independently); the walk exists to validate structure and to
// give a fuller implementation hash->offset cross-reference data.
type HashChainResult struct {
	Entries     []HashEntry
	NodesVisited int
	FilteredOut  int
}

// WalkHashChain follows the linked HASH records starting at headOffset.
// maxAlloc bounds the body buffer allocated for each record, rejecting an
// on-disk num_blocks value before it reaches make() rather than after.
func WalkHashChain(src ByteSource, headOffset uint64, blockSize uint16, maxAlloc uint64) (*HashChainResult, error) {
	result := &HashChainResult{}
	offset := headOffset
	visited := map[uint64]bool{}

	for depth := 0; ; depth++ {
		if depth >= MaxHashDepth {
			return nil, newParseError(KindValueOutOfBounds, offset, ErrHashChainDepth)
		}
		if visited[offset] {
			return nil, newParseError(KindValueOutOfBounds, offset, ErrHashChainDepth)
		}
		visited[offset] = true

		header := make([]byte, hashRecordHeaderSize)
		if err := readAt(src, offset, header); err != nil {
			return nil, err
		}

		if string(header[0:4]) != "HASH" {
			return nil, newParseError(KindInvalidFormat, offset, ErrHashChainSignature)
		}

		numBlocks := binary.LittleEndian.Uint32(header[4:8])
		nextOffset := binary.LittleEndian.Uint32(header[8:12])

		recordSize := uint64(numBlocks) * uint64(blockSize)
		if recordSize < hashRecordHeaderSize {
			return nil, newParseError(KindInvalidFormat, offset, ErrHashChainSize)
		}
		bodySize := recordSize - hashRecordHeaderSize
		if bodySize == 0 || bodySize%hashEntrySize != 0 {
			return nil, newParseError(KindInvalidFormat, offset, ErrHashChainSize)
		}
		if bodySize > maxAlloc {
			return nil, newParseError(KindValueExceedsMaximum, offset, ErrHashChainAllocation)
		}

		body := make([]byte, bodySize)
		if err := readAt(src, offset+hashRecordHeaderSize, body); err != nil {
			return nil, err
		}

		for i := uint64(0); i < bodySize; i += hashEntrySize {
			hash := binary.LittleEndian.Uint32(body[i : i+4])
			target := binary.LittleEndian.Uint32(body[i+4 : i+8])
			result.NodesVisited++

			if hashEntryFiltered(hash, target, blockSize) {
				result.FilteredOut++
				continue
			}
			result.Entries = append(result.Entries, HashEntry{Hash: hash, TargetOffset: target})
		}

		if nextOffset == 0 {
			return result, nil
		}
		offset = uint64(nextOffset)
	}
}

// hashEntryFiltered reports whether a (hash, target) pair should be
// skipped: empty slot, uninitialized sentinel, marked invalid-URL, or
// misaligned target.
func hashEntryFiltered(hash, target uint32, blockSize uint16) bool {
	if hash == target {
		return true
	}
	if hash == hashBadF00D || hash == hashDeadBeef {
		return true
	}
	if hash&0x0F == 0x01 {
		return true
	}
	if target%uint32(blockSize) != 0 {
		return true
	}
	return false
}
