package hashkv

import (
	"unsafe"
)

// Iterator walks every entry of a Dict exactly once, table 0 first, then
// table 1 if a rehash is in flight.
//
// A safe iterator pins the Dict's shape: no rehash steps run while it is
// live, and deleting the entry the iterator just returned is allowed. An
// unsafe iterator is cheaper and does not block rehashing, but the Dict must
// not be mutated until Release; a fingerprint taken at the first Next and
// checked at Release detects violations.
type Iterator struct {
	d           *Dict
	table       int
	index       int64
	safe        bool
	entry       *Entry
	nextEntry   *Entry
	fingerprint uint64
}

// NewIterator returns an unsafe iterator over d.
func (d *Dict) NewIterator() *Iterator {
	it := iterPool.Get().(*Iterator)
	*it = Iterator{d: d, index: -1}
	return it
}

// NewSafeIterator returns a safe iterator over d.
func (d *Dict) NewSafeIterator() *Iterator {
	it := d.NewIterator()
	it.safe = true
	return it
}

// Next returns the next entry, or nil when the iteration is done.
func (it *Iterator) Next() *Entry {
	for {
		if it.entry == nil {
			ht := &it.d.ht[it.table]
			if it.index == -1 && it.table == 0 {
				if it.safe {
					it.d.iterators++
				} else {
					it.fingerprint = it.d.fingerprint()
				}
			}
			it.index++
			if it.index >= int64(ht.size()) {
				if it.d.IsRehashing() && it.table == 0 {
					it.table++
					it.index = 0
					ht = &it.d.ht[1]
				} else {
					return nil
				}
			}
			it.entry = ht.buckets[it.index]
		} else {
			it.entry = it.nextEntry
		}
		if it.entry != nil {
			// Save next now; the caller may delete the returned entry.
			it.nextEntry = it.entry.next
			return it.entry
		}
	}
}

// Release ends the iteration. For a safe iterator it resumes rehashing. For
// an unsafe iterator it verifies the fingerprint and returns
// ErrIteratorInvalidated (or panics in strict mode) if the Dict was mutated
// since the first Next. The iterator must not be used after Release.
func (it *Iterator) Release() error {
	started := !(it.index == -1 && it.table == 0)
	if started {
		if it.safe {
			it.d.iterators--
		} else if it.fingerprint != it.d.fingerprint() {
			if strictMode {
				panic(ErrIteratorInvalidated)
			}
			return ErrIteratorInvalidated
		}
	}
	it.d = nil
	it.entry, it.nextEntry = nil, nil
	iterPool.Put(it)
	return nil
}

// fingerprint digests the shape of both tables (bucket array identity, size
// and entry count) into 64 bits. Order-sensitive: the same six values in a
// different arrangement produce a different result.
func (d *Dict) fingerprint() uint64 {
	integers := [6]uint64{
		uint64(uintptr(unsafe.Pointer(unsafe.SliceData(d.ht[0].buckets)))),
		d.ht[0].size(),
		d.ht[0].used,
		uint64(uintptr(unsafe.Pointer(unsafe.SliceData(d.ht[1].buckets)))),
		d.ht[1].size(),
		d.ht[1].used,
	}

	// hash = mix(mix(mix(int1)+int2)+int3)..., with Tomas Wang's 64-bit
	// integer mix at each step.
	var hash uint64
	for _, v := range integers {
		hash += v
		hash = (^hash) + (hash << 21)
		hash = hash ^ (hash >> 24)
		hash = (hash + (hash << 3)) + (hash << 8)
		hash = hash ^ (hash >> 14)
		hash = (hash + (hash << 2)) + (hash << 4)
		hash = hash ^ (hash >> 28)
		hash = hash + (hash << 31)
	}
	return hash
}
