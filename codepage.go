// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Codepage identifiers accepted by File.SetCodepage. Only a fixed
// whitelist of Windows and ASCII codepages is supported; anything else is
// UnsupportedValue per spec.md §4.7.
const (
	CodepageASCII       = 20127
	CodepageWindows874  = 874
	CodepageWindows932  = 932
	CodepageWindows936  = 936
	CodepageWindows949  = 949
	CodepageWindows950  = 950
	CodepageWindows1250 = 1250
	CodepageWindows1251 = 1251
	CodepageWindows1252 = 1252
	CodepageWindows1253 = 1253
	CodepageWindows1254 = 1254
	CodepageWindows1255 = 1255
	CodepageWindows1256 = 1256
	CodepageWindows1257 = 1257
	CodepageWindows1258 = 1258

	// DefaultCodepage is Windows-1252, per spec.md §3.
	DefaultCodepage = CodepageWindows1252
)

// codepageEncodings maps the whitelisted identifiers to the x/text encoder
// used to transcode raw record bytes to UTF-8/UTF-16. ASCII is treated
// byte-for-byte, matching the original tool's behavior for that codepage.
var codepageEncodings = map[int]encoding.Encoding{
	CodepageWindows874:  charmap.Windows874,
	CodepageWindows932:  japanese.ShiftJIS,
	CodepageWindows936:  simplifiedchinese.GBK,
	CodepageWindows949:  korean.EUCKR,
	CodepageWindows950:  traditionalchinese.Big5,
	CodepageWindows1250: charmap.Windows1250,
	CodepageWindows1251: charmap.Windows1251,
	CodepageWindows1252: charmap.Windows1252,
	CodepageWindows1253: charmap.Windows1253,
	CodepageWindows1254: charmap.Windows1254,
	CodepageWindows1255: charmap.Windows1255,
	CodepageWindows1256: charmap.Windows1256,
	CodepageWindows1257: charmap.Windows1257,
	CodepageWindows1258: charmap.Windows1258,
}

// IsSupportedCodepage reports whether cp is in the accepted whitelist.
func IsSupportedCodepage(cp int) bool {
	if cp == CodepageASCII {
		return true
	}
	_, ok := codepageEncodings[cp]
	return ok
}

// decodeCodepageBytes transcodes raw bytes captured under codepage cp to a
// UTF-8 string.
func decodeCodepageBytes(b []byte, cp int) (string, error) {
	if cp == CodepageASCII {
		out := make([]byte, len(b))
		for i, c := range b {
			if c > 0x7f {
				c = '?'
			}
			out[i] = c
		}
		return string(out), nil
	}

	enc, ok := codepageEncodings[cp]
	if !ok {
		return "", ErrUnsupportedCodepage
	}
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}
