package hashkv

import (
	"math/bits"
)

// Scan iterates the Dict one bucket batch at a time through a stateless
// cursor. Start with cursor 0; feed each returned cursor into the next call;
// a returned 0 means the scan is complete. The Dict may be mutated, resized
// included, between calls.
//
// fn is called once per entry. bucketfn, if not nil, is called once per
// emitted bucket with the chain head (nil for empty buckets); defragmenters
// use it to relocate chain nodes. Rehash steps are paused while the
// callbacks run, so fn may delete the entry it is given.
//
// The cursor advances by incrementing its masked bits in reversed bit order:
// the masked (low) bits are enumerated high-bit-first. When
// the table grows, the unexplored buckets of the larger table are exactly
// the expansions of unexplored cursors of the smaller one; when it shrinks,
// already-explored low-bit patterns are never revisited. Hence every key
// present for the whole scan is emitted at least once, though keys can be
// emitted more than once across resizes.
func (d *Dict) Scan(cursor uint64, fn func(*Entry), bucketfn func(*Entry)) uint64 {
	if d.Len() == 0 {
		return 0
	}

	// A rehash step triggered by a callback could drain or swap the tables
	// being walked.
	d.iterators++
	defer func() { d.iterators-- }()

	if !d.IsRehashing() {
		t0 := &d.ht[0]
		m0 := t0.sizemask

		emitBucket(t0, cursor&m0, fn, bucketfn)

		// Set the bits above the mask so that incrementing the reversed
		// cursor carries into the masked bits.
		cursor |= ^m0
		cursor = bits.Reverse64(cursor)
		cursor++
		cursor = bits.Reverse64(cursor)
		return cursor
	}

	t0, t1 := &d.ht[0], &d.ht[1]
	if t0.size() > t1.size() {
		t0, t1 = t1, t0
	}
	m0 := t0.sizemask
	m1 := t1.sizemask

	emitBucket(t0, cursor&m0, fn, bucketfn)

	// Visit every index of the larger table that expands the current index
	// of the smaller one.
	for {
		emitBucket(t1, cursor&m1, fn, bucketfn)

		cursor |= ^m1
		cursor = bits.Reverse64(cursor)
		cursor++
		cursor = bits.Reverse64(cursor)

		if cursor&(m0^m1) == 0 {
			break
		}
	}
	return cursor
}

func emitBucket(t *dictTable, idx uint64, fn func(*Entry), bucketfn func(*Entry)) {
	head := t.buckets[idx]
	if bucketfn != nil {
		bucketfn(head)
	}
	for e := head; e != nil; {
		next := e.next
		fn(e)
		e = next
	}
}
