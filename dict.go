package hashkv

import (
	"reflect"
	"time"
)

// Resize policy. Resizing can be disabled globally (the embedder does this
// while a copy-on-write child is running, so the parent does not touch large
// allocations); even then a table is allowed to grow once the load factor
// exceeds forceResizeRatio.
var (
	canResize        = true
	forceResizeRatio = uint64(5)
	initialTableSize = uint64(4)
)

// EnableResize allows Dicts to resize on demand.
func EnableResize() { canResize = true }

// DisableResize prevents Dicts from resizing except when the load factor
// exceeds the force-resize ratio.
func DisableResize() { canResize = false }

// SetForceResizeRatio sets the used/buckets ratio past which a grow happens
// even while resize is disabled.
func SetForceResizeRatio(ratio uint32) { forceResizeRatio = uint64(ratio) }

// SetInitialTableSize sets the minimum bucket-array length for new tables.
// The value must be a power of two.
func SetInitialTableSize(size uint32) {
	if size == 0 || size&(size-1) != 0 {
		panic("hashkv: initial table size must be a power of two")
	}
	initialTableSize = uint64(size)
}

// Entry is a single key-value pair chained within a Dict bucket.
type Entry struct {
	key  any
	val  any
	next *Entry
}

func (e *Entry) Key() any { return e.key }
func (e *Entry) Val() any { return e.val }

// SetVal stores val into the entry as is, without consulting the DictType.
// Use Dict.SetVal when the type's DupVal must apply.
func (e *Entry) SetVal(val any) { e.val = val }

// Next returns the following entry in the same bucket chain.
func (e *Entry) Next() *Entry { return e.next }

type dictTable struct {
	buckets  []*Entry
	sizemask uint64
	used     uint64
}

func (t *dictTable) size() uint64 { return uint64(len(t.buckets)) }

func (t *dictTable) reset() {
	t.buckets = nil
	t.sizemask = 0
	t.used = 0
}

// Dict is a chained hash table. Growing is incremental: a second bucket
// array is allocated and entries migrate one bucket per operation, so no
// single call stalls on a full rehash.
type Dict struct {
	typ       *DictType
	ht        [2]dictTable
	rehashidx int64 // -1 when no rehash is in progress
	iterators uint64
}

// NewDict creates an empty Dict of the given type.
func NewDict(typ *DictType) *Dict {
	if typ == nil || typ.Hash == nil {
		panic("hashkv: DictType with a Hash function is required")
	}
	return &Dict{typ: typ, rehashidx: -1}
}

// Len returns the number of live entries across both tables.
func (d *Dict) Len() uint64 {
	return d.ht[0].used + d.ht[1].used
}

// Slots returns the total number of buckets currently allocated.
func (d *Dict) Slots() uint64 {
	return d.ht[0].size() + d.ht[1].size()
}

// IsRehashing reports whether an incremental rehash is in progress.
func (d *Dict) IsRehashing() bool { return d.rehashidx != -1 }

func nextPower(size uint64) uint64 {
	i := initialTableSize
	for i < size {
		i <<= 1
	}
	return i
}

// Expand grows (or initially sizes) the bucket array to the smallest power
// of two that holds size entries at load factor 1. Returns ErrCannotResize
// while a rehash is in progress, when size is below the current entry count,
// or when the result would equal the current size.
func (d *Dict) Expand(size uint64) error {
	if d.IsRehashing() || d.ht[0].used > size {
		return ErrCannotResize
	}

	realsize := nextPower(size)
	if realsize == d.ht[0].size() {
		return ErrCannotResize
	}

	n := dictTable{
		buckets:  make([]*Entry, realsize),
		sizemask: realsize - 1,
	}

	// First allocation is not a rehash, just install the table.
	if d.ht[0].buckets == nil {
		d.ht[0] = n
		return nil
	}

	d.ht[1] = n
	d.rehashidx = 0
	return nil
}

// Resize shrinks the bucket array to the smallest power of two that holds
// the current entries. Refused while resizing is disabled or a rehash is in
// progress.
func (d *Dict) Resize() error {
	if !canResize || d.IsRehashing() {
		return ErrCannotResize
	}
	minimal := d.ht[0].used
	if minimal < initialTableSize {
		minimal = initialTableSize
	}
	return d.Expand(minimal)
}

// Rehash performs up to n bucket migrations from ht[0] to ht[1], visiting at
// most n*10 empty buckets before yielding. Returns true while entries remain
// to migrate.
func (d *Dict) Rehash(n int) bool {
	emptyVisits := n * 10
	if !d.IsRehashing() {
		return false
	}

	for n > 0 && d.ht[0].used != 0 {
		n--

		// rehashidx can't run off the end while ht[0].used != 0.
		for d.ht[0].buckets[d.rehashidx] == nil {
			d.rehashidx++
			emptyVisits--
			if emptyVisits == 0 {
				return true
			}
		}

		e := d.ht[0].buckets[d.rehashidx]
		for e != nil {
			next := e.next
			idx := d.typ.hashKey(e.key) & d.ht[1].sizemask
			e.next = d.ht[1].buckets[idx]
			d.ht[1].buckets[idx] = e
			d.ht[0].used--
			d.ht[1].used++
			e = next
		}
		d.ht[0].buckets[d.rehashidx] = nil
		d.rehashidx++
	}

	if d.ht[0].used == 0 {
		d.ht[0] = d.ht[1]
		d.ht[1].reset()
		d.rehashidx = -1
		return false
	}
	return true
}

// RehashMilliseconds rehashes in batches of 100 buckets until the wall-clock
// budget is exhausted, returning the number of batches times 100.
func (d *Dict) RehashMilliseconds(ms int) int {
	start := time.Now()
	rehashes := 0
	for d.Rehash(100) {
		rehashes += 100
		if time.Since(start) > time.Duration(ms)*time.Millisecond {
			break
		}
	}
	return rehashes
}

// rehashStep migrates a single bucket, unless a safe iterator is live:
// moving entries between the tables mid-iteration would skip or duplicate
// elements.
func (d *Dict) rehashStep() {
	if d.iterators == 0 {
		d.Rehash(1)
	}
}

func (d *Dict) expandIfNeeded() {
	if d.IsRehashing() {
		return
	}
	if d.ht[0].size() == 0 {
		ensure(d.Expand(initialTableSize))
		return
	}
	if d.ht[0].used >= d.ht[0].size() && (canResize || d.ht[0].used/d.ht[0].size() > forceResizeRatio) {
		_ = d.Expand(d.ht[0].used * 2)
	}
}

// keyIndex returns the bucket index the key should be inserted at, or -1 and
// the existing entry if the key is already present. During a rehash the
// index always refers to ht[1].
func (d *Dict) keyIndex(key any, hash uint64) (int64, *Entry) {
	d.expandIfNeeded()

	var idx uint64
	for table := 0; table <= 1; table++ {
		idx = hash & d.ht[table].sizemask
		for e := d.ht[table].buckets[idx]; e != nil; e = e.next {
			if d.typ.compareKeys(key, e.key) {
				return -1, e
			}
		}
		if !d.IsRehashing() {
			break
		}
	}
	return int64(idx), nil
}

// AddRaw inserts key with an uninitialized value and returns the new entry
// and true; if the key already exists it returns the existing entry and
// false. The caller is responsible for setting the value. The key is stored
// through the type's DupKey.
func (d *Dict) AddRaw(key any) (*Entry, bool) {
	if d.IsRehashing() {
		d.rehashStep()
	}

	index, existing := d.keyIndex(key, d.typ.hashKey(key))
	if index == -1 {
		return existing, false
	}

	// Insert at the head of the chain: recently added entries tend to be
	// accessed more often.
	ht := &d.ht[0]
	if d.IsRehashing() {
		ht = &d.ht[1]
	}
	entry := &Entry{key: d.typ.dupKey(key), next: ht.buckets[index]}
	ht.buckets[index] = entry
	ht.used++
	return entry, true
}

// Add inserts the key-value pair and returns true, or returns false leaving
// the Dict unchanged if the key already exists.
func (d *Dict) Add(key, val any) bool {
	entry, isNew := d.AddRaw(key)
	if !isNew {
		return false
	}
	entry.val = d.typ.dupVal(val)
	return true
}

// SetVal stores val into the entry through the type's DupVal.
func (d *Dict) SetVal(e *Entry, val any) {
	e.val = d.typ.dupVal(val)
}

// Replace sets the key to val, returning true if the key was newly added and
// false if an existing value was overwritten. The new value is installed
// before the old one is released, so replacing a value with itself stays
// correct under reference-counting callbacks.
func (d *Dict) Replace(key, val any) bool {
	entry, isNew := d.AddRaw(key)
	if isNew {
		entry.val = d.typ.dupVal(val)
		return true
	}
	old := entry.val
	entry.val = d.typ.dupVal(val)
	d.typ.freeVal(old)
	return false
}

// AddOrFind returns the entry for key, inserting it with an uninitialized
// value if absent.
func (d *Dict) AddOrFind(key any) *Entry {
	entry, _ := d.AddRaw(key)
	return entry
}

// Find returns the entry for key, or nil.
func (d *Dict) Find(key any) *Entry {
	if d.Len() == 0 {
		return nil
	}
	if d.IsRehashing() {
		d.rehashStep()
	}
	h := d.typ.hashKey(key)
	for table := 0; table <= 1; table++ {
		idx := h & d.ht[table].sizemask
		for e := d.ht[table].buckets[idx]; e != nil; e = e.next {
			if d.typ.compareKeys(key, e.key) {
				return e
			}
		}
		if !d.IsRehashing() {
			return nil
		}
	}
	return nil
}

// FetchValue returns the value stored for key, or nil.
func (d *Dict) FetchValue(key any) any {
	if e := d.Find(key); e != nil {
		return e.val
	}
	return nil
}

// genericDelete unlinks the entry for key from its chain. With free set the
// key and value are released through the type callbacks.
func (d *Dict) genericDelete(key any, free bool) *Entry {
	if d.Len() == 0 {
		return nil
	}
	if d.IsRehashing() {
		d.rehashStep()
	}

	h := d.typ.hashKey(key)
	for table := 0; table <= 1; table++ {
		idx := h & d.ht[table].sizemask
		var prev *Entry
		for e := d.ht[table].buckets[idx]; e != nil; e = e.next {
			if d.typ.compareKeys(key, e.key) {
				if prev != nil {
					prev.next = e.next
				} else {
					d.ht[table].buckets[idx] = e.next
				}
				if free {
					d.typ.freeKey(e.key)
					d.typ.freeVal(e.val)
					e.key, e.val = nil, nil
				}
				e.next = nil
				d.ht[table].used--
				return e
			}
			prev = e
		}
		if !d.IsRehashing() {
			break
		}
	}
	return nil
}

// Delete removes the key, releasing its key and value, and reports whether
// it was present.
func (d *Dict) Delete(key any) bool {
	return d.genericDelete(key, true) != nil
}

// Unlink detaches the entry for key without releasing it, so the caller can
// keep using the value and release it later via FreeUnlinkedEntry. Returns
// nil if the key is absent.
func (d *Dict) Unlink(key any) *Entry {
	return d.genericDelete(key, false)
}

// FreeUnlinkedEntry releases an entry previously detached with Unlink.
// Safe to call with nil.
func (d *Dict) FreeUnlinkedEntry(e *Entry) {
	if e == nil {
		return
	}
	d.typ.freeKey(e.key)
	d.typ.freeVal(e.val)
	e.key, e.val = nil, nil
}

// clearTable releases every entry of one table and resets it. The callback,
// if any, is invoked every 65536 buckets so that very large dicts can report
// progress while draining.
func (d *Dict) clearTable(t *dictTable, callback func()) {
	for i := uint64(0); i < t.size() && t.used > 0; i++ {
		if callback != nil && i&65535 == 0 {
			callback()
		}
		e := t.buckets[i]
		if e == nil {
			continue
		}
		for e != nil {
			next := e.next
			d.typ.freeKey(e.key)
			d.typ.freeVal(e.val)
			e.key, e.val, e.next = nil, nil, nil
			t.used--
			e = next
		}
	}
	t.reset()
}

// Empty removes every entry, keeping the Dict usable.
func (d *Dict) Empty(callback func()) {
	d.clearTable(&d.ht[0], callback)
	d.clearTable(&d.ht[1], callback)
	d.rehashidx = -1
	d.iterators = 0
}

// Release clears both tables. The Dict must not be used afterwards.
func (d *Dict) Release() {
	d.clearTable(&d.ht[0], nil)
	d.clearTable(&d.ht[1], nil)
}

// GetHash returns the hash of key under this Dict's type.
func (d *Dict) GetHash(key any) uint64 {
	return d.typ.hashKey(key)
}

// LookupEntryRef finds the entry whose key is the same object as oldKey
// (pointer identity for slices and pointers, plain equality otherwise),
// using a precomputed hash and no key comparison, and returns a pointer to
// the chain slot referencing it. Used by defragmenters that need to swap a
// node out of its chain. Returns nil if not found.
func (d *Dict) LookupEntryRef(oldKey any, hash uint64) **Entry {
	if d.Len() == 0 {
		return nil
	}
	for table := 0; table <= 1; table++ {
		idx := hash & d.ht[table].sizemask
		ref := &d.ht[table].buckets[idx]
		for *ref != nil {
			if identicalKey(oldKey, (*ref).key) {
				return ref
			}
			ref = &(*ref).next
		}
		if !d.IsRehashing() {
			return nil
		}
	}
	return nil
}

func identicalKey(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice, reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return a == b
}
