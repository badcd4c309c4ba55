// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import "testing"

func buildREDRRecord(location string) []byte {
	buf := make([]byte, redrLocationOffset+len(location)+1)
	copy(buf[0:4], "REDR")
	copy(buf[redrLocationOffset:], location)
	return buf
}

func TestDecodeREDRRecord(t *testing.T) {
	buf := buildREDRRecord("http://redirected.example.com/")
	r, err := decodeREDRRecord(buf, false)
	if err != nil {
		t.Fatalf("decodeREDRRecord failed: %v", err)
	}
	if r.Location == nil {
		t.Fatal("expected non-nil Location")
	}
	s, err := r.Location.UTF8()
	if err != nil || s != "http://redirected.example.com/" {
		t.Errorf("got location %q, err %v", s, err)
	}
}

func TestDecodeREDRRecordRejectsBadSignature(t *testing.T) {
	buf := buildREDRRecord("http://example.com/")
	copy(buf[0:4], "XXXX")
	if _, err := decodeREDRRecord(buf, false); err == nil {
		t.Fatal("expected error for wrong record signature")
	}
}

func TestDecodeREDRRecordStrictTooSmall(t *testing.T) {
	buf := make([]byte, 8)
	copy(buf[0:4], "REDR")
	if _, err := decodeREDRRecord(buf, false); err == nil {
		t.Fatal("expected error for truncated REDR record in non-partial mode")
	}
}

func TestDecodeREDRRecordPartialUnterminated(t *testing.T) {
	buf := append(buildREDRRecord("http://example.com/"), 0)
	// Strip the trailing NUL bytes to simulate a truncated recovered record.
	buf = buf[:len(buf)-2]
	r, err := decodeREDRRecord(buf, true)
	if err != nil {
		t.Fatalf("decodeREDRRecord failed in partial mode: %v", err)
	}
	if r.Location == nil {
		t.Fatal("expected a lenient partial Location")
	}
}
