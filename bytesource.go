// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// ByteSource is the random-access read capability the core consumes. It is
// the only I/O surface this package depends on; buffered-I/O, retry and
// timeout policy belong to the caller, not here.
type ByteSource interface {
	// Seek moves the read cursor to offset from the start of the source.
	Seek(offset uint64) error

	// ReadExact fills buf completely from the current cursor, advancing it
	// by len(buf). A short read is an error.
	ReadExact(buf []byte) error

	// Len returns the total size of the source in bytes.
	Len() uint64
}

// MmapSource memory-maps a file read-only, the way the teacher's File.New
// maps a PE binary instead of issuing read syscalls per access.
type MmapSource struct {
	f      *os.File
	data   mmap.MMap
	cursor uint64
}

// OpenMmapSource opens name and memory-maps it read-only.
func OpenMmapSource(name string) (*MmapSource, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &MmapSource{f: f, data: data}, nil
}

// Close unmaps the backing file and closes the descriptor.
func (m *MmapSource) Close() error {
	if m.data != nil {
		_ = m.data.Unmap()
		m.data = nil
	}
	if m.f != nil {
		return m.f.Close()
	}
	return nil
}

// Seek implements ByteSource.
func (m *MmapSource) Seek(offset uint64) error {
	if offset > uint64(len(m.data)) {
		return io.ErrUnexpectedEOF
	}
	m.cursor = offset
	return nil
}

// ReadExact implements ByteSource.
func (m *MmapSource) ReadExact(buf []byte) error {
	end := m.cursor + uint64(len(buf))
	if end > uint64(len(m.data)) {
		return io.ErrUnexpectedEOF
	}
	copy(buf, m.data[m.cursor:end])
	m.cursor = end
	return nil
}

// Len implements ByteSource.
func (m *MmapSource) Len() uint64 {
	return uint64(len(m.data))
}

// SliceSource is an in-memory ByteSource over a byte slice, used by tests
// and by the fuzz entry point where there is no backing file to map.
type SliceSource struct {
	data   []byte
	cursor uint64
}

// NewSliceSource wraps data as a ByteSource.
func NewSliceSource(data []byte) *SliceSource {
	return &SliceSource{data: data}
}

// Seek implements ByteSource.
func (s *SliceSource) Seek(offset uint64) error {
	if offset > uint64(len(s.data)) {
		return io.ErrUnexpectedEOF
	}
	s.cursor = offset
	return nil
}

// ReadExact implements ByteSource.
func (s *SliceSource) ReadExact(buf []byte) error {
	end := s.cursor + uint64(len(buf))
	if end > uint64(len(s.data)) {
		return io.ErrUnexpectedEOF
	}
	copy(buf, s.data[s.cursor:end])
	s.cursor = end
	return nil
}

// Len implements ByteSource.
func (s *SliceSource) Len() uint64 {
	return uint64(len(s.data))
}

// readAt is a convenience used throughout the package: seek then read
// exactly len(buf) bytes, wrapping I/O failures with the offset they
// occurred at.
func readAt(src ByteSource, offset uint64, buf []byte) error {
	if err := src.Seek(offset); err != nil {
		return newParseError(KindIOError, offset, err)
	}
	if err := src.ReadExact(buf); err != nil {
		return newParseError(KindIOError, offset, err)
	}
	return nil
}
