// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"sort"
)

// Range is a half-open byte range [Offset, Offset+Length).
type Range struct {
	Offset uint64
	Length uint64
}

// End returns the exclusive end of the range.
func (r Range) End() uint64 {
	return r.Offset + r.Length
}

// UnallocatedRanges is a sorted, non-overlapping, maximally-merged set of
// byte ranges the allocation bitmap marks as unallocated.
type UnallocatedRanges struct {
	ranges []Range
}

// insert appends a range; callers build ranges in ascending offset order
// during the bitmap scan, so no re-sort is needed, but we defensively sort
// once at the end to keep the invariant airtight for callers that build one
// out of order (e.g. tests).
func (u *UnallocatedRanges) insert(r Range) {
	if r.Length == 0 {
		return
	}
	u.ranges = append(u.ranges, r)
}

func (u *UnallocatedRanges) finalize() {
	sort.Slice(u.ranges, func(i, j int) bool {
		return u.ranges[i].Offset < u.ranges[j].Offset
	})

	merged := u.ranges[:0]
	for _, r := range u.ranges {
		if n := len(merged); n > 0 && merged[n-1].End() >= r.Offset {
			if r.End() > merged[n-1].End() {
				merged[n-1].Length = r.End() - merged[n-1].Offset
			}
			continue
		}
		merged = append(merged, r)
	}
	u.ranges = merged
}

// Len returns the number of unallocated ranges.
func (u *UnallocatedRanges) Len() int {
	return len(u.ranges)
}

// At returns the i'th unallocated range.
func (u *UnallocatedRanges) At(i int) Range {
	return u.ranges[i]
}

// Contains reports whether offset falls within any unallocated range, and
// if so returns that range.
func (u *UnallocatedRanges) Contains(offset uint64) (Range, bool) {
	// The ranges are sorted and non-overlapping; binary search would scale
	// better, but cache directories rarely exceed a few thousand ranges and
	// linear scan keeps this readable against the teacher's style.
	for _, r := range u.ranges {
		if offset >= r.Offset && offset < r.End() {
			return r, true
		}
		if r.Offset > offset {
			break
		}
	}
	return Range{}, false
}

// ScanBitmap reads the allocation bitmap and produces the set of
// unallocated byte ranges in the block region. bitmapOffset is where the
// bitmap itself lives on disk; baseOffset is where block 0 begins;
// numBlocks bounds how many bits are meaningful.
func ScanBitmap(src ByteSource, bitmapOffset, fileSize, baseOffset uint64, blockSize uint16, numBlocks, storedAllocatedCount uint32) (*UnallocatedRanges, uint32, error) {
	ranges := &UnallocatedRanges{}

	bitmapBytes := uint64(numBlocks) / 8
	if bitmapBytes == 0 {
		return ranges, 0, nil
	}

	if bitmapOffset+bitmapBytes > baseOffset {
		return nil, 0, newParseError(KindValueOutOfBounds, bitmapOffset, ErrBitmapOverlap)
	}

	buf := make([]byte, bitmapBytes)
	if err := readAt(src, bitmapOffset, buf); err != nil {
		return nil, 0, err
	}

	var (
		currentOffset    = baseOffset
		runStart         = baseOffset
		runLen           uint64
		inRun            bool
		calculatedAllocs uint32
	)

	flush := func() {
		if inRun && runLen > 0 {
			ranges.insert(Range{Offset: runStart, Length: runLen})
		}
		inRun = false
		runLen = 0
	}

	for _, b := range buf {
		for bit := 0; bit < 8; bit++ {
			if currentOffset >= fileSize {
				flush()
				ranges.finalize()
				return ranges, calculatedAllocs, nil
			}

			allocated := (b>>uint(bit))&1 == 1
			if allocated {
				flush()
				calculatedAllocs++
			} else {
				if !inRun {
					inRun = true
					runStart = currentOffset
					runLen = 0
				}
				runLen += uint64(blockSize)
			}
			currentOffset += uint64(blockSize)
		}
	}

	flush()
	ranges.finalize()
	return ranges, calculatedAllocs, nil
}
