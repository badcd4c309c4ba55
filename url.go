// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

import (
	"encoding/binary"
)

// UrlKind classifies a URL record by inspecting the prefix of its location
// string, per spec.md §4.6.
type UrlKind int

const (
	UrlKindUnknown UrlKind = iota
	UrlKindCache
	UrlKindCookie
	UrlKindHistory
	UrlKindHistoryDaily
	UrlKindHistoryWeekly
	UrlKindDownload
	UrlKindDomStore
	UrlKindRssFeed
	UrlKindCompatibility
	UrlKindInPrivateFiltering
	UrlKindUserData
	UrlKindTld
)

func (k UrlKind) String() string {
	switch k {
	case UrlKindCache:
		return "Cache"
	case UrlKindCookie:
		return "Cookie"
	case UrlKindHistory:
		return "History"
	case UrlKindHistoryDaily:
		return "HistoryDaily"
	case UrlKindHistoryWeekly:
		return "HistoryWeekly"
	case UrlKindDownload:
		return "Download"
	case UrlKindDomStore:
		return "DomStore"
	case UrlKindRssFeed:
		return "RssFeed"
	case UrlKindCompatibility:
		return "Compatibility"
	case UrlKindInPrivateFiltering:
		return "InPrivateFiltering"
	case UrlKindUserData:
		return "UserData"
	case UrlKindTld:
		return "Tld"
	default:
		return "Unknown"
	}
}

// Cache entry flag bits used for the sanity warnings in spec.md §4.6.
const (
	cacheEntryFlagCookie     = 0x00100000
	cacheEntryFlagURLHistory = 0x00200000
)

// UrlValues holds the decoded fields of a URL record.
type UrlValues struct {
	Kind UrlKind

	SecondaryTime   uint64 // FILETIME
	PrimaryTime     uint64 // FILETIME
	ExpirationTime  uint64 // FILETIME (v4.7) or widened FAT date-time (v5.2)
	ExpirationIsFAT bool

	CachedFileSize       uint32
	CacheDirectoryIndex  uint8
	NumberOfHits         uint32
	LastCheckedTime      uint32 // FAT date-time
	CacheEntryFlags      uint32

	Location *StringField
	Filename *StringField
	Data     []byte

	Warnings []string
}

// HasCacheDirectory reports whether CacheDirectoryIndex refers to an entry
// in the cache directory table rather than the "none" sentinels 0xFE/0xFF.
func (u *UrlValues) HasCacheDirectory() bool {
	return u.CacheDirectoryIndex != 0xFE && u.CacheDirectoryIndex != 0xFF
}

const (
	urlHeaderV47Size = 100
	urlHeaderV52Size = 96
)

// decodeURLRecord decodes a URL record from buf (the full record payload,
// starting at the "URL " signature), given the file's format version and
// whether the descriptor is partial (loosening string/offset checks).
func decodeURLRecord(buf []byte, major, minor uint8, partial bool) (*UrlValues, error) {
	if len(buf) < 4 || string(buf[0:4]) != "URL " {
		return nil, newParseError(KindInvalidFormat, 0, ErrRecordSignature)
	}

	v52 := major == 5 && minor == 2

	headerSize := urlHeaderV47Size
	if v52 {
		headerSize = urlHeaderV52Size
	}
	if !partial && len(buf) < headerSize {
		return nil, newParseError(KindValueOutOfBounds, 0, ErrStringOffset)
	}

	u := &UrlValues{}

	u.SecondaryTime = binary.LittleEndian.Uint64(buf[8:16])
	u.PrimaryTime = binary.LittleEndian.Uint64(buf[16:24])

	var (
		cachedFileSizeOff, locationOffOff, cacheDirIdxOff uint32
		filenameOffOff, cacheFlagsOff, dataOffOff, dataSizeOff uint32
		lastCheckedOff, numberOfHitsOff                       uint32
	)

	if v52 {
		u.ExpirationTime = uint64(binary.LittleEndian.Uint32(buf[24:28]))
		u.ExpirationIsFAT = true
		cachedFileSizeOff = 32
		locationOffOff = 52
		cacheDirIdxOff = 56
		filenameOffOff = 60
		cacheFlagsOff = 64
		dataOffOff = 68
		dataSizeOff = 72
		lastCheckedOff = 80
		numberOfHitsOff = 84
	} else {
		u.ExpirationTime = binary.LittleEndian.Uint64(buf[24:32])
		u.ExpirationIsFAT = false
		cachedFileSizeOff = 32
		locationOffOff = 56
		cacheDirIdxOff = 60
		filenameOffOff = 64
		cacheFlagsOff = 68
		dataOffOff = 72
		dataSizeOff = 76
		lastCheckedOff = 84
		numberOfHitsOff = 88
	}

	u.CachedFileSize = binary.LittleEndian.Uint32(buf[cachedFileSizeOff : cachedFileSizeOff+4])
	u.CacheDirectoryIndex = buf[cacheDirIdxOff]
	u.CacheEntryFlags = binary.LittleEndian.Uint32(buf[cacheFlagsOff : cacheFlagsOff+4])
	u.LastCheckedTime = binary.LittleEndian.Uint32(buf[lastCheckedOff : lastCheckedOff+4])
	u.NumberOfHits = binary.LittleEndian.Uint32(buf[numberOfHitsOff : numberOfHitsOff+4])

	locationOffset := binary.LittleEndian.Uint32(buf[locationOffOff : locationOffOff+4])
	filenameOffset := binary.LittleEndian.Uint32(buf[filenameOffOff : filenameOffOff+4])
	dataOffset := binary.LittleEndian.Uint32(buf[dataOffOff : dataOffOff+4])
	dataSize := binary.LittleEndian.Uint32(buf[dataSizeOff : dataSizeOff+4])

	locationRaw, err := sliceBoundedString(buf, locationOffset, partial)
	if err != nil {
		return nil, err
	}
	if locationRaw != nil {
		sf := NewStringField(locationRaw, DefaultCodepage)
		u.Location = &sf
	}

	filenameRaw, err := sliceBoundedString(buf, filenameOffset, partial)
	if err != nil {
		return nil, err
	}
	if filenameRaw != nil {
		sf := NewStringField(filenameRaw, DefaultCodepage)
		u.Filename = &sf
	}

	if dataOffset != 0 {
		if int(dataOffset) > len(buf) {
			if !partial {
				return nil, newParseError(KindValueOutOfBounds, uint64(dataOffset), ErrStringOffset)
			}
		} else {
			end := uint64(dataOffset) + uint64(dataSize)
			if end > uint64(len(buf)) {
				if !partial {
					return nil, newParseError(KindValueOutOfBounds, uint64(dataOffset), ErrStringOffset)
				}
				end = uint64(len(buf))
			}
			u.Data = append([]byte(nil), buf[dataOffset:end]...)
		}
	}

	u.Kind = classifyURLKind(locationRaw)

	if u.Kind == UrlKindCookie && u.CacheEntryFlags&cacheEntryFlagCookie == 0 {
		u.Warnings = append(u.Warnings, "cookie entry missing COOKIE_CACHE_ENTRY flag")
	}
	switch u.Kind {
	case UrlKindHistory, UrlKindHistoryDaily, UrlKindHistoryWeekly:
		if u.CacheEntryFlags&cacheEntryFlagURLHistory == 0 {
			u.Warnings = append(u.Warnings, "history entry missing URLHISTORY_CACHE_ENTRY flag")
		}
	}

	return u, nil
}

// classifyURLKind inspects the prefix of a location string and returns its
// URL kind, per the prefix table and date-delta logic in spec.md §4.6.
func classifyURLKind(location []byte) UrlKind {
	if kind, ok := classifyHistoryDateRange(location); ok {
		return kind
	}

	type prefixRule struct {
		prefix string
		kind   UrlKind
	}
	rules := []prefixRule{
		{"iedownload:", UrlKindDownload},
		{"DOMStore:", UrlKindDomStore},
		{"feedplat:", UrlKindRssFeed},
		{"iecompat:", UrlKindCompatibility},
		{"PrivacIE:", UrlKindInPrivateFiltering},
		{"userdata:", UrlKindUserData},
		{"Visited:", UrlKindHistory},
		{"Cookie:", UrlKindCookie},
		{"ietld:", UrlKindTld},
	}
	for _, r := range rules {
		if hasPrefix(location, r.prefix) {
			return r.kind
		}
	}
	return UrlKindCache
}

func hasPrefix(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	return string(b[:len(prefix)]) == prefix
}

// classifyHistoryDateRange recognizes the ":YYYYMMDDYYYYMMDD:" pattern and
// computes the day delta between the two embedded dates, accounting for
// month lengths (including Feb 29 on Gregorian leap years) and the
// Dec->Jan year rollover. Only a delta of 1 or 7 days maps to a kind.
func classifyHistoryDateRange(location []byte) (UrlKind, bool) {
	if len(location) < 18 {
		return 0, false
	}
	if location[0] != ':' || location[17] != ':' {
		return 0, false
	}
	for i := 1; i <= 16; i++ {
		if location[i] < '0' || location[i] > '9' {
			return 0, false
		}
	}

	digit := func(i int) int { return int(location[i] - '0') }
	d2 := func(i int) int { return digit(i)*10 + digit(i+1) }
	d4 := func(i int) int { return d2(i)*100 + d2(i+2) }

	firstYear := d4(1)
	firstMonth := d2(5)
	firstDay := d2(7)
	secondYear := d4(9)
	secondMonth := d2(13)
	secondDay := d2(15)

	numberOfDays := 0
	switch {
	case firstYear == secondYear:
		switch {
		case firstMonth == secondMonth:
			if firstDay < secondDay {
				numberOfDays = secondDay - firstDay
			}
		case firstMonth+1 == secondMonth:
			numberOfDays = secondDay - firstDay + daysInMonth(firstMonth, firstYear)
		}
	case firstYear+1 == secondYear:
		if firstMonth == 12 && secondMonth == 1 {
			numberOfDays = secondDay - firstDay + 31
		}
	}

	switch numberOfDays {
	case 1:
		return UrlKindHistoryDaily, true
	case 7:
		return UrlKindHistoryWeekly, true
	default:
		return 0, false
	}
}

func daysInMonth(month, year int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
