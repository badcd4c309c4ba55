// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import "testing"

func TestStringFieldUTF8RoundTrip(t *testing.T) {
	field := NewStringField([]byte("http://example.com/path"), CodepageWindows1252)

	s, err := field.UTF8()
	if err != nil {
		t.Fatalf("UTF8 failed: %v", err)
	}
	if s != "http://example.com/path" {
		t.Errorf("got %q", s)
	}

	size, err := field.UTF8Size()
	if err != nil {
		t.Fatalf("UTF8Size failed: %v", err)
	}
	if size != len(s)+1 {
		t.Errorf("got size %d, want %d", size, len(s)+1)
	}

	dst := make([]byte, size)
	n, err := field.CopyUTF8(dst)
	if err != nil {
		t.Fatalf("CopyUTF8 failed: %v", err)
	}
	if n != size {
		t.Errorf("got %d copied, want %d", n, size)
	}
	if dst[n-1] != 0 {
		t.Errorf("CopyUTF8 did not NUL-terminate")
	}
	if string(dst[:n-1]) != s {
		t.Errorf("got copied %q, want %q", dst[:n-1], s)
	}
}

func TestStringFieldCopyUTF8BufferTooSmall(t *testing.T) {
	field := NewStringField([]byte("abc"), CodepageWindows1252)
	_, err := field.CopyUTF8(make([]byte, 1))
	if err != ErrBufferTooSmall {
		t.Errorf("got %v, want ErrBufferTooSmall", err)
	}
}

func TestStringFieldUTF16RoundTrip(t *testing.T) {
	field := NewStringField([]byte("abc"), CodepageWindows1252)

	size, err := field.UTF16Size()
	if err != nil {
		t.Fatalf("UTF16Size failed: %v", err)
	}
	if size != 4 { // 3 code units + terminator
		t.Errorf("got size %d, want 4", size)
	}

	dst := make([]uint16, size)
	n, err := field.CopyUTF16(dst)
	if err != nil {
		t.Fatalf("CopyUTF16 failed: %v", err)
	}
	if n != size || dst[n-1] != 0 {
		t.Errorf("got n=%d dst=%v", n, dst)
	}
}

func TestStringFieldUnsupportedCodepage(t *testing.T) {
	field := NewStringField([]byte("abc"), 99999)
	if _, err := field.UTF8(); err != ErrUnsupportedCodepage {
		t.Errorf("got %v, want ErrUnsupportedCodepage", err)
	}
}

func TestSliceBoundedStringTerminated(t *testing.T) {
	buf := []byte{'x', 'y', 'z', 0, 'h', 'i', 0}
	s, err := sliceBoundedString(buf, 4, false)
	if err != nil {
		t.Fatalf("sliceBoundedString failed: %v", err)
	}
	if string(s) != "hi" {
		t.Errorf("got %q, want %q", s, "hi")
	}
}

func TestSliceBoundedStringZeroOffset(t *testing.T) {
	buf := []byte{'x', 'y', 'z', 0}
	s, err := sliceBoundedString(buf, 0, false)
	if err != nil || s != nil {
		t.Errorf("got (%q, %v), want (nil, nil) for offset 0", s, err)
	}
}

func TestSliceBoundedStringOutOfBounds(t *testing.T) {
	buf := []byte{'x', 'y', 'z'}
	_, err := sliceBoundedString(buf, 10, false)
	if err == nil {
		t.Fatal("expected error for offset beyond buffer")
	}
}

func TestSliceBoundedStringUnterminatedStrict(t *testing.T) {
	buf := []byte{'x', 'h', 'i'}
	_, err := sliceBoundedString(buf, 1, false)
	if err == nil {
		t.Fatal("expected error for unterminated string in non-partial mode")
	}
}

func TestSliceBoundedStringUnterminatedLenient(t *testing.T) {
	buf := []byte{'x', 'h', 'i'}
	s, err := sliceBoundedString(buf, 1, true)
	if err != nil {
		t.Fatalf("sliceBoundedString failed in partial mode: %v", err)
	}
	if string(s) != "hi" {
		t.Errorf("got %q, want %q", s, "hi")
	}
}
