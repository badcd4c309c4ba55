// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a parse failure the way the on-disk format can fail,
// per the taxonomy every public accessor surfaces.
type ErrorKind int

const (
	// KindInvalidArgument means a caller-supplied parameter violates a
	// stated precondition.
	KindInvalidArgument ErrorKind = iota + 1

	// KindInvalidFormat means a signature mismatch, unsupported version, or
	// misaligned size.
	KindInvalidFormat

	// KindInvalidData means an in-band value fails a consistency
	// invariant.
	KindInvalidData

	// KindValueOutOfBounds means a size or offset derived from the file
	// would exceed the file or MaxAllocSize.
	KindValueOutOfBounds

	// KindValueExceedsMaximum means an explicit allocation-cap violation.
	KindValueExceedsMaximum

	// KindUnsupportedValue means a recognized but not-implemented value.
	KindUnsupportedValue

	// KindIOError wraps an underlying ByteSource failure.
	KindIOError

	// KindAborted means SignalAbort was observed mid-operation.
	KindAborted
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindInvalidData:
		return "InvalidData"
	case KindValueOutOfBounds:
		return "ValueOutOfBounds"
	case KindValueExceedsMaximum:
		return "ValueExceedsMaximum"
	case KindUnsupportedValue:
		return "UnsupportedValue"
	case KindIOError:
		return "IoError"
	case KindAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// ParseError carries the kind of failure plus the byte offset it was
// detected at, the way a forensic reader needs to report where a file went
// bad rather than just that it did.
type ParseError struct {
	Kind   ErrorKind
	Offset uint64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("msiecf: %s at offset 0x%x: %v", e.Kind, e.Offset, e.Err)
	}
	return fmt.Sprintf("msiecf: %s at offset 0x%x", e.Kind, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(kind ErrorKind, offset uint64, err error) *ParseError {
	return &ParseError{Kind: kind, Offset: offset, Err: err}
}

// Sentinel errors, so callers can errors.Is against a stable value
// regardless of the offset/wrapped-cause that accompanies a given failure.
var (
	ErrInvalidSignature     = errors.New("msiecf: file signature does not match \"Client UrlCache MMF Ver \"")
	ErrInvalidFormatVersion = errors.New("msiecf: unsupported format version")
	ErrHashTableOffset      = errors.New("msiecf: hash table offset exceeds file size")
	ErrBitmapOverlap        = errors.New("msiecf: allocation bitmap overlaps the block region")
	ErrDirectoryTableSize   = errors.New("msiecf: cache directory table count exceeds maximum allocation size")
	ErrHashChainDepth       = errors.New("msiecf: hash chain recursion exceeds maximum depth")
	ErrHashChainSignature   = errors.New("msiecf: HASH record signature not found")
	ErrHashChainSize        = errors.New("msiecf: HASH record body size is not a non-zero multiple of 8")
	ErrHashChainAllocation  = errors.New("msiecf: HASH record body size exceeds the maximum allocation size")
	ErrRecordSignature      = errors.New("msiecf: record signature not found")
	ErrStringOffset         = errors.New("msiecf: string offset exceeds record bounds")
	ErrStringUnterminated   = errors.New("msiecf: string is not NUL-terminated")
	ErrUnsupportedCodepage  = errors.New("msiecf: codepage is not in the supported whitelist")
	ErrBufferTooSmall       = errors.New("msiecf: destination buffer is too small")
	ErrAborted              = errors.New("msiecf: operation aborted")
	ErrNoSuchItem           = errors.New("msiecf: item index out of range")
)

// MaxAllocDefault is the conservative default allocation cap applied to
// every size/count derived from on-disk values, per the memory-bounds
// policy every loop in this package follows.
const MaxAllocDefault = 64 * 1024 * 1024
