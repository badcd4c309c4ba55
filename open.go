// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

// OpenFile memory-maps name and parses it, mirroring the teacher's
// pe.New(name, opts).
func OpenFile(name string, opts *Options) (*File, error) {
	src, err := OpenMmapSource(name)
	if err != nil {
		return nil, err
	}
	f, err := Open(src, opts)
	if err != nil {
		src.Close()
		return nil, err
	}
	return f, nil
}

// OpenBytes parses an in-memory buffer, mirroring the teacher's
// pe.NewBytes(data, opts).
func OpenBytes(data []byte, opts *Options) (*File, error) {
	return Open(NewSliceSource(data), opts)
}
