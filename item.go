// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msiecf

// Item is a materialized record: a descriptor plus its decoded,
// kind-specific value. Its lifetime is scoped to the File that produced
// it -- the facade re-decodes on every access rather than caching, per
// spec.md §4.7.
type Item struct {
	Descriptor ItemDescriptor

	URL  *UrlValues
	REDR *RedirectedValues
	LEAK *LeakValues
}

// Kind returns the item's record kind.
func (it *Item) Kind() ItemKind { return it.Descriptor.Kind }

// Offset returns the item's file offset.
func (it *Item) Offset() uint64 { return it.Descriptor.FileOffset }

// Size returns the item's on-disk record size.
func (it *Item) Size() uint32 { return it.Descriptor.RecordSize }

// Recovered reports whether the item was found in unallocated space.
func (it *Item) Recovered() bool { return it.Descriptor.Flags.has(FlagRecovered) }

// Partial reports whether the item is a recovered fragment truncated by a
// subsequent record.
func (it *Item) Partial() bool { return it.Descriptor.Flags.has(FlagPartial) }

// Tainted reports whether the item's declared block count is suspect
// after downstream scanning.
func (it *Item) Tainted() bool { return it.Descriptor.Flags.has(FlagTainted) }

// decodeItem reads and decodes one record given its descriptor.
func decodeItem(src ByteSource, d ItemDescriptor, major, minor uint8, blockSize uint16, maxAlloc uint64) (*Item, error) {
	readSize := uint64(d.RecordSize)
	if d.Flags.has(FlagTainted) {
		readSize += uint64(blockSize)
	}
	if readSize > maxAlloc {
		readSize = maxAlloc
	}

	buf := make([]byte, readSize)
	if err := readAt(src, d.FileOffset, buf); err != nil {
		return nil, err
	}

	partial := d.Flags.has(FlagPartial)

	item := &Item{Descriptor: d}
	switch d.Kind {
	case KindURL:
		v, err := decodeURLRecord(buf, major, minor, partial)
		if err != nil {
			return nil, err
		}
		item.URL = v
	case KindRedirected:
		v, err := decodeREDRRecord(buf, partial)
		if err != nil {
			return nil, err
		}
		item.REDR = v
	case KindLeak:
		v, err := decodeLEAKRecord(buf, partial)
		if err != nil {
			return nil, err
		}
		item.LEAK = v
	default:
		// Undefined descriptors carry no decodable value.
	}

	return item, nil
}
