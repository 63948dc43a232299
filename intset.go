package hashkv

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
)

// Element encodings, in bytes per element. Ordered so that a wider encoding
// compares greater.
const (
	intsetEncInt16 = 2
	intsetEncInt32 = 4
	intsetEncInt64 = 8
)

// IntSet is a sorted set of signed integers stored in one contiguous buffer.
// Elements are kept in strictly ascending order at the narrowest encoding
// that fits every stored value; inserting a value out of the current range
// widens the whole buffer in place. The encoding never narrows back, even
// after removals.
type IntSet struct {
	encoding uint32
	length   uint32
	contents []byte
}

// NewIntSet creates an empty set at the 16-bit encoding.
func NewIntSet() *IntSet {
	return &IntSet{encoding: intsetEncInt16}
}

func intsetValueEncoding(v int64) uint32 {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return intsetEncInt64
	} else if v < math.MinInt16 || v > math.MaxInt16 {
		return intsetEncInt32
	}
	return intsetEncInt16
}

func (is *IntSet) getEncoded(pos uint32, enc uint32) int64 {
	switch enc {
	case intsetEncInt64:
		return int64(binary.LittleEndian.Uint64(is.contents[pos*8:]))
	case intsetEncInt32:
		return int64(int32(binary.LittleEndian.Uint32(is.contents[pos*4:])))
	default:
		return int64(int16(binary.LittleEndian.Uint16(is.contents[pos*2:])))
	}
}

func (is *IntSet) get(pos uint32) int64 {
	return is.getEncoded(pos, is.encoding)
}

func (is *IntSet) set(pos uint32, value int64) {
	switch is.encoding {
	case intsetEncInt64:
		binary.LittleEndian.PutUint64(is.contents[pos*8:], uint64(value))
	case intsetEncInt32:
		binary.LittleEndian.PutUint32(is.contents[pos*4:], uint32(value))
	default:
		binary.LittleEndian.PutUint16(is.contents[pos*2:], uint16(value))
	}
}

func (is *IntSet) resize(length uint32) {
	size := int(length) * int(is.encoding)
	if size <= cap(is.contents) {
		is.contents = is.contents[:size]
		return
	}
	grown := make([]byte, size)
	copy(grown, is.contents)
	is.contents = grown
}

// search locates value, returning its position and true, or false and the
// position where value keeps the set sorted when inserted.
func (is *IntSet) search(value int64) (uint32, bool) {
	if is.length == 0 {
		return 0, false
	}

	// Off-range values short-circuit to the edges.
	if value > is.get(is.length-1) {
		return is.length, false
	} else if value < is.get(0) {
		return 0, false
	}

	min, max := 0, int(is.length)-1
	for max >= min {
		mid := (min + max) >> 1
		cur := is.get(uint32(mid))
		if value > cur {
			min = mid + 1
		} else if value < cur {
			max = mid - 1
		} else {
			return uint32(mid), true
		}
	}
	return uint32(min), false
}

// upgradeAndAdd widens the buffer to fit value's encoding, then places value
// at an edge: a value that forces a wider encoding lies outside the current
// range, so it is strictly smaller (negative) or larger (positive) than
// everything stored.
func (is *IntSet) upgradeAndAdd(value int64) {
	curenc := is.encoding
	length := is.length
	var prepend uint32
	if value < 0 {
		prepend = 1
	}

	is.encoding = intsetValueEncoding(value)
	is.resize(length + 1)

	// Widen back to front so unread narrow elements are not overwritten.
	for pos := length; pos > 0; pos-- {
		is.set(pos-1+prepend, is.getEncoded(pos-1, curenc))
	}

	if prepend != 0 {
		is.set(0, value)
	} else {
		is.set(length, value)
	}
	is.length = length + 1
}

func (is *IntSet) moveTail(from, to uint32) {
	enc := is.encoding
	copy(is.contents[to*enc:], is.contents[from*enc:is.length*enc])
}

// Add inserts value, reporting whether it was newly added.
func (is *IntSet) Add(value int64) bool {
	valenc := intsetValueEncoding(value)
	if valenc > is.encoding {
		// Never fails and needs no search: the value lands at an edge.
		is.upgradeAndAdd(value)
		return true
	}

	pos, found := is.search(value)
	if found {
		return false
	}

	is.resize(is.length + 1)
	if pos < is.length {
		is.moveTail(pos, pos+1)
	}
	is.set(pos, value)
	is.length++
	return true
}

// Remove deletes value, reporting whether it was present. The encoding is
// never narrowed back.
func (is *IntSet) Remove(value int64) bool {
	if intsetValueEncoding(value) > is.encoding {
		return false
	}
	pos, found := is.search(value)
	if !found {
		return false
	}

	if pos < is.length-1 {
		is.moveTail(pos+1, pos)
	}
	is.length--
	is.resize(is.length)
	return true
}

// Contains reports whether value belongs to the set.
func (is *IntSet) Contains(value int64) bool {
	if intsetValueEncoding(value) > is.encoding {
		return false
	}
	_, found := is.search(value)
	return found
}

// Get returns the element at pos in ascending order.
func (is *IntSet) Get(pos uint32) (int64, bool) {
	if pos >= is.length {
		return 0, false
	}
	return is.get(pos), true
}

// Random returns a uniformly random element. Panics on an empty set.
func (is *IntSet) Random() int64 {
	return is.get(rand.Uint32N(is.length))
}

// Len returns the number of elements.
func (is *IntSet) Len() uint32 {
	return is.length
}

// BlobSize returns the size in bytes of the element buffer.
func (is *IntSet) BlobSize() int {
	return int(is.length) * int(is.encoding)
}
