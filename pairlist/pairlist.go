// Package pairlist implements a compact list of byte-string entries packed
// into a single contiguous buffer, used as the small-hash representation of
// field/value pairs (fields and values alternate; the pairing convention is
// the caller's).
//
// Entries are referenced by byte offsets into the buffer. Any mutation
// invalidates previously obtained offsets and byte slices, except where a
// method documents the offset it leaves valid. Entries whose bytes spell a
// canonical base-10 signed integer are stored as varints, so typical
// numeric values take a few bytes regardless of digit count.
package pairlist

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
)

// Entry kinds on the wire: a kind byte, then either uvarint length + raw
// bytes, or a signed varint.
const (
	kindBytes = 0
	kindInt   = 1
)

// Positions for Push.
const (
	Head = 0
	Tail = 1
)

// List is a packed list of entries. The zero value is an empty list.
type List struct {
	buf   []byte
	count int
}

// New returns an empty list.
func New() *List {
	return &List{}
}

// Len returns the number of entries.
func (l *List) Len() int { return l.count }

// BlobLen returns the size in bytes of the packed buffer.
func (l *List) BlobLen() int { return len(l.buf) }

// Index returns the offset of the i-th entry; negative i counts from the
// tail (-1 is the last entry). Returns -1 when out of range.
func (l *List) Index(i int) int {
	if i < 0 {
		i = l.count + i
	}
	if i < 0 || i >= l.count {
		return -1
	}
	p := 0
	for ; i > 0; i-- {
		p += l.entrySize(p)
	}
	return p
}

// Next returns the offset of the entry following p, or -1 at the end.
func (l *List) Next(p int) int {
	p += l.entrySize(p)
	if p >= len(l.buf) {
		return -1
	}
	return p
}

// Get returns the entry at offset p: either its byte string, or its inline
// integer with isInt set. The byte slice aliases the buffer and is only
// valid until the next mutation.
func (l *List) Get(p int) (bstr []byte, ival int64, isInt bool) {
	switch l.buf[p] {
	case kindBytes:
		n, w := binary.Uvarint(l.buf[p+1:])
		if w <= 0 {
			panic(fmt.Errorf("pairlist: corrupt entry header at %d", p))
		}
		start := p + 1 + w
		return l.buf[start : start+int(n)], 0, false
	case kindInt:
		v, w := binary.Varint(l.buf[p+1:])
		if w <= 0 {
			panic(fmt.Errorf("pairlist: corrupt int entry at %d", p))
		}
		return nil, v, true
	default:
		panic(fmt.Errorf("pairlist: unknown entry kind %d at %d", l.buf[p], p))
	}
}

// Find scans forward from offset p for an entry equal to needle, comparing
// one entry out of every skip+1 (skip 1 compares fields only in an
// alternating field/value layout). Returns the matching offset or -1.
func (l *List) Find(p int, needle []byte, skip int) int {
	var needleInt int64
	needleIntState := 0 // 0 unparsed, 1 parsed ok, -1 not an int

	skipcnt := 0
	for p >= 0 {
		if skipcnt == 0 {
			bstr, ival, isInt := l.Get(p)
			if !isInt {
				if bytes.Equal(bstr, needle) {
					return p
				}
			} else {
				// Parse the needle at most once, and only when an int entry
				// shows up.
				if needleIntState == 0 {
					if v, ok := parseCanonicalInt(needle); ok {
						needleInt, needleIntState = v, 1
					} else {
						needleIntState = -1
					}
				}
				if needleIntState == 1 && ival == needleInt {
					return p
				}
			}
			skipcnt = skip
		} else {
			skipcnt--
		}
		p = l.Next(p)
	}
	return -1
}

// Insert places data as a new entry before offset p; p == BlobLen appends.
// Returns the offset of the inserted entry.
func (l *List) Insert(p int, data []byte) int {
	enc := encodeEntry(nil, data)
	l.buf = ensureCapacity(l.buf, len(l.buf)+len(enc))
	l.buf = l.buf[:len(l.buf)+len(enc)]
	copy(l.buf[p+len(enc):], l.buf[p:])
	copy(l.buf[p:], enc)
	l.count++
	return p
}

// Delete removes the entry at offset p. The entry that followed it is now
// at p (or p == BlobLen if the tail was deleted).
func (l *List) Delete(p int) {
	n := l.entrySize(p)
	copy(l.buf[p:], l.buf[p+n:])
	l.buf = l.buf[:len(l.buf)-n]
	l.count--
}

// Push appends data at the head or tail of the list.
func (l *List) Push(data []byte, where int) {
	if where == Head {
		l.Insert(0, data)
	} else {
		l.Insert(len(l.buf), data)
	}
}

func (l *List) entrySize(p int) int {
	switch l.buf[p] {
	case kindBytes:
		n, w := binary.Uvarint(l.buf[p+1:])
		if w <= 0 {
			panic(fmt.Errorf("pairlist: corrupt entry header at %d", p))
		}
		return 1 + w + int(n)
	case kindInt:
		_, w := binary.Varint(l.buf[p+1:])
		if w <= 0 {
			panic(fmt.Errorf("pairlist: corrupt int entry at %d", p))
		}
		return 1 + w
	default:
		panic(fmt.Errorf("pairlist: unknown entry kind %d at %d", l.buf[p], p))
	}
}

func encodeEntry(buf []byte, data []byte) []byte {
	if v, ok := parseCanonicalInt(data); ok {
		buf = append(buf, kindInt)
		return appendVarint(buf, v)
	}
	buf = append(buf, kindBytes)
	return appendVarbytes(buf, data)
}

// parseCanonicalInt accepts only strings that round-trip: an optional minus,
// no leading zeros (except "0" itself), digits only, and within int64 range.
func parseCanonicalInt(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 20 {
		return 0, false
	}
	s := b
	if s[0] == '-' {
		s = s[1:]
		if len(s) == 0 || s[0] == '0' {
			return 0, false
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
