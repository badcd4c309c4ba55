// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

const redrLocationOffset = 16

// RedirectedValues holds the decoded fields of a REDR record.
type RedirectedValues struct {
	Location *StringField
}

// decodeREDRRecord decodes a REDR record from buf.
func decodeREDRRecord(buf []byte, partial bool) (*RedirectedValues, error) {
	if len(buf) < 4 || string(buf[0:4]) != "REDR" {
		return nil, newParseError(KindInvalidFormat, 0, ErrRecordSignature)
	}
	if !partial && len(buf) < redrLocationOffset {
		return nil, newParseError(KindValueOutOfBounds, 0, ErrStringOffset)
	}

	r := &RedirectedValues{}

	if len(buf) > redrLocationOffset {
		raw, err := sliceBoundedString(buf, redrLocationOffset, partial)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			sf := NewStringField(raw, DefaultCodepage)
			r.Location = &sf
		}
	}

	return r, nil
}
