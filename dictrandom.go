package hashkv

import (
	"math/rand/v2"
)

// RandomEntry returns a random entry, or nil if the Dict is empty. The
// distribution is uniform over nonempty buckets and then uniform within the
// chosen chain, not uniform over entries; callers that need the latter must
// correct for chain length themselves.
func (d *Dict) RandomEntry() *Entry {
	if d.Len() == 0 {
		return nil
	}
	if d.IsRehashing() {
		d.rehashStep()
	}

	var e *Entry
	if d.IsRehashing() {
		size0 := d.ht[0].size()
		for e == nil {
			// Buckets below rehashidx in ht[0] are already drained.
			h := uint64(d.rehashidx) + rand.Uint64N(d.Slots()-uint64(d.rehashidx))
			if h >= size0 {
				e = d.ht[1].buckets[h-size0]
			} else {
				e = d.ht[0].buckets[h]
			}
		}
	} else {
		for e == nil {
			h := rand.Uint64() & d.ht[0].sizemask
			e = d.ht[0].buckets[h]
		}
	}

	// The bucket is a chain; count it and pick a uniform position.
	listlen := 0
	for he := e; he != nil; he = he.next {
		listlen++
	}
	listele := rand.IntN(listlen)
	for ; listele > 0; listele-- {
		e = e.next
	}
	return e
}

// Sample stores up to len(out) entries picked from random locations into out
// and returns the number stored. It walks whole buckets forward from a
// random start, jumping to a new random position after a run of empty
// buckets, and gives up after 10 steps per wanted entry (len(out), capped at
// the Dict's length), so fewer entries than
// requested may be returned. During a rehash the same entry can be stored
// twice. Good for sampling algorithms, not for uniform distribution.
func (d *Dict) Sample(out []*Entry) int {
	count := uint64(len(out))
	if d.Len() < count {
		count = d.Len()
	}
	maxsteps := count * 10

	// Rehash work proportional to the sample size.
	for j := uint64(0); j < count; j++ {
		if !d.IsRehashing() {
			break
		}
		d.rehashStep()
	}

	tables := 1
	if d.IsRehashing() {
		tables = 2
	}
	maxsizemask := d.ht[0].sizemask
	if tables > 1 && maxsizemask < d.ht[1].sizemask {
		maxsizemask = d.ht[1].sizemask
	}

	i := rand.Uint64() & maxsizemask
	var emptylen uint64
	var stored uint64
	for stored < count && maxsteps > 0 {
		maxsteps--
		for j := 0; j < tables; j++ {
			// Buckets of ht[0] below rehashidx are drained; skip them, and
			// if the cursor is also out of range for ht[1] (shrinking), jump
			// straight to rehashidx.
			if tables == 2 && j == 0 && i < uint64(d.rehashidx) {
				if i >= d.ht[1].size() {
					i = uint64(d.rehashidx)
				} else {
					continue
				}
			}
			if i >= d.ht[j].size() {
				continue
			}
			e := d.ht[j].buckets[i]

			if e == nil {
				emptylen++
				if emptylen >= 5 && emptylen > count {
					i = rand.Uint64() & maxsizemask
					emptylen = 0
				}
			} else {
				emptylen = 0
				for e != nil {
					out[stored] = e
					stored++
					e = e.next
					if stored == count {
						return int(stored)
					}
				}
			}
		}
		i = (i + 1) & maxsizemask
	}
	return int(stored)
}
