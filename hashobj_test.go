package hashkv

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func setPackedLimits(t *testing.T, entries, value int) {
	t.Helper()
	oldE, oldV := maxPackedEntries, maxPackedValue
	SetMaxPackedEntries(entries)
	SetMaxPackedValue(value)
	t.Cleanup(func() {
		SetMaxPackedEntries(oldE)
		SetMaxPackedValue(oldV)
	})
}

func TestObjectBasics(t *testing.T) {
	o := NewObject()
	if o.Representation() != Packed {
		t.Fatalf("new object representation = %v, wanted packed", o.Representation())
	}
	if o.Len() != 0 {
		t.Fatalf("Len = %d, wanted 0", o.Len())
	}

	if o.Set([]byte("name"), []byte("arthur"), 0) {
		t.Fatalf("Set of new field reported existed-before")
	}
	if !o.Set([]byte("name"), []byte("ford"), 0) {
		t.Fatalf("Set of existing field did not report existed-before")
	}
	if o.Len() != 1 {
		t.Fatalf("Len after update = %d, wanted 1", o.Len())
	}
	v, ok := o.Get([]byte("name"))
	if !ok || string(v.Str) != "ford" {
		t.Fatalf("Get = (%q, %v), wanted (ford, true)", v.Str, ok)
	}
	if !o.Exists([]byte("name")) || o.Exists([]byte("nope")) {
		t.Fatalf("Exists gave wrong answers")
	}
	if got := o.ValueLength([]byte("name")); got != 4 {
		t.Fatalf("ValueLength = %d, wanted 4", got)
	}
	if got := o.ValueLength([]byte("nope")); got != 0 {
		t.Fatalf("ValueLength of missing field = %d, wanted 0", got)
	}

	if !o.Delete([]byte("name")) {
		t.Fatalf("Delete = false, wanted true")
	}
	if o.Delete([]byte("name")) {
		t.Fatalf("second Delete = true, wanted false")
	}
	if o.Len() != 0 {
		t.Fatalf("Len after delete = %d, wanted 0", o.Len())
	}
}

func TestObjectPackedIntegerValues(t *testing.T) {
	o := NewObject()
	o.Set([]byte("count"), []byte("12345"), 0)
	v, ok := o.Get([]byte("count"))
	if !ok || !v.IsInt || v.Int != 12345 {
		t.Fatalf("Get = (%+v, %v), wanted inline int 12345", v, ok)
	}
	if got := o.ValueLength([]byte("count")); got != 5 {
		t.Fatalf("ValueLength of inline int = %d, wanted 5", got)
	}
	if got := string(v.Bytes()); got != "12345" {
		t.Fatalf("Bytes = %q, wanted 12345", got)
	}

	// Non-canonical spellings must stay byte strings.
	o.Set([]byte("padded"), []byte("0123"), 0)
	v, _ = o.Get([]byte("padded"))
	if v.IsInt || string(v.Str) != "0123" {
		t.Fatalf("leading-zero value stored as %+v, wanted byte string 0123", v)
	}
}

func TestObjectConversionOnEntryCount(t *testing.T) {
	setPackedLimits(t, 3, 64)

	o := NewObject()
	o.Set([]byte("a"), []byte("1"), 0)
	o.Set([]byte("b"), []byte("2"), 0)
	o.Set([]byte("c"), []byte("3"), 0)
	if o.Representation() != Packed {
		t.Fatalf("representation after 3 fields = %v, wanted packed", o.Representation())
	}
	o.Set([]byte("d"), []byte("4"), 0)
	if o.Representation() != Table {
		t.Fatalf("representation after 4 fields = %v, wanted table", o.Representation())
	}
	for i, f := range []string{"a", "b", "c", "d"} {
		v, ok := o.Get([]byte(f))
		want := fmt.Sprintf("%d", i+1)
		if !ok || string(v.Str) != want {
			t.Fatalf("Get(%q) = (%q, %v), wanted (%q, true)", f, v.Str, ok, want)
		}
	}
}

func TestObjectConversionOnValueLength(t *testing.T) {
	setPackedLimits(t, 128, 8)

	o := NewObject()
	o.Set([]byte("short"), []byte("ok"), 0)
	o.TryConversion([]byte("f"), []byte("tiny"))
	if o.Representation() != Packed {
		t.Fatalf("TryConversion with short args converted the hash")
	}

	long := []byte("definitely-longer-than-eight-bytes")
	o.TryConversion([]byte("f"), long)
	if o.Representation() != Table {
		t.Fatalf("TryConversion with long arg did not convert")
	}
	o.Set([]byte("f"), long, 0)

	if v, ok := o.Get([]byte("short")); !ok || string(v.Str) != "ok" {
		t.Fatalf("pre-conversion field lost: (%q, %v)", v.Str, ok)
	}
	if v, ok := o.Get([]byte("f")); !ok || !bytes.Equal(v.Str, long) {
		t.Fatalf("post-conversion field wrong: (%q, %v)", v.Str, ok)
	}
}

func TestObjectNeverConvertsBack(t *testing.T) {
	setPackedLimits(t, 2, 64)

	o := NewObject()
	o.Set([]byte("a"), []byte("1"), 0)
	o.Set([]byte("b"), []byte("2"), 0)
	o.Set([]byte("c"), []byte("3"), 0)
	if o.Representation() != Table {
		t.Fatalf("not converted")
	}
	o.Delete([]byte("a"))
	o.Delete([]byte("b"))
	o.Delete([]byte("c"))
	if o.Representation() != Table {
		t.Fatalf("representation reverted to %v after deletes", o.Representation())
	}
	o.TryConversion([]byte("x"))
	if o.Representation() != Table {
		t.Fatalf("TryConversion changed a table hash")
	}
}

func TestObjectFieldUniqueness(t *testing.T) {
	for _, repr := range []Representation{Packed, Table} {
		o := NewObject()
		if repr == Table {
			setPackedLimits(t, 0, 64)
		}
		o.Set([]byte("f"), []byte("v1"), 0)
		o.Set([]byte("f"), []byte("v2"), 0)
		if o.Representation() != repr {
			t.Fatalf("representation = %v, wanted %v", o.Representation(), repr)
		}
		if o.Len() != 1 {
			t.Fatalf("%v: Len = %d after two sets of one field", repr, o.Len())
		}
		if v, _ := o.Get([]byte("f")); string(v.Bytes()) != "v2" {
			t.Fatalf("%v: Get = %q, wanted v2", repr, v.Bytes())
		}
	}
}

func TestObjectTakeFlags(t *testing.T) {
	setPackedLimits(t, 0, 64)

	o := NewObject()
	o.Set([]byte("seed"), []byte("x"), 0) // first set converts to table
	if o.Representation() != Table {
		t.Fatalf("representation = %v, wanted table", o.Representation())
	}

	field := []byte("field")
	value := []byte("value")
	o.Set(field, value, TakeField|TakeValue)

	// Taken slices are stored as is: mutating the caller's copy shows up.
	value[0] = 'X'
	if v, _ := o.Get([]byte("field")); string(v.Str) != "Xalue" {
		t.Fatalf("taken value not aliased: %q", v.Str)
	}

	copied := []byte("copied")
	o.Set([]byte("other"), copied, 0)
	copied[0] = 'X'
	if v, _ := o.Get([]byte("other")); string(v.Str) != "copied" {
		t.Fatalf("copied value aliased caller's buffer: %q", v.Str)
	}
}

func TestObjectTableShrinksAfterDeletes(t *testing.T) {
	setPackedLimits(t, 4, 64)

	o := NewObject()
	for i := 0; i < 500; i++ {
		o.Set([]byte(key(i)), []byte("v"), 0)
	}
	if o.Representation() != Table {
		t.Fatalf("not converted")
	}
	for o.table.IsRehashing() {
		o.table.Rehash(100)
	}
	bigSize := o.table.ht[0].size()

	for i := 0; i < 495; i++ {
		o.Delete([]byte(key(i)))
	}
	for o.table.IsRehashing() {
		o.table.Rehash(100)
	}
	if got := o.table.ht[0].size(); got >= bigSize {
		t.Fatalf("table size %d did not shrink from %d", got, bigSize)
	}
	for i := 495; i < 500; i++ {
		if !o.Exists([]byte(key(i))) {
			t.Fatalf("field %q lost across shrink", key(i))
		}
	}
}

func TestObjectIterator(t *testing.T) {
	for _, entries := range []int{128, 4} { // packed, then converted
		setPackedLimits(t, entries, 64)
		o := NewObject()
		want := map[string]string{}
		for i := 0; i < 10; i++ {
			f := fmt.Sprintf("f%02d", i)
			v := fmt.Sprintf("v%02d", i)
			o.Set([]byte(f), []byte(v), 0)
			want[f] = v
		}

		got := map[string]string{}
		it := o.NewIterator()
		for it.Next() {
			got[string(it.CurrentBytes(KindField))] = string(it.CurrentBytes(KindValue))
		}
		it.Release()

		if len(got) != len(want) {
			t.Fatalf("entries=%d: iterator yielded %d pairs, wanted %d", entries, len(got), len(want))
		}
		for f, v := range want {
			if got[f] != v {
				t.Fatalf("entries=%d: pair %q = %q, wanted %q", entries, f, got[f], v)
			}
		}
	}
}

func TestObjectPackedIterationOrder(t *testing.T) {
	o := NewObject()
	o.Set([]byte("one"), []byte("1"), 0)
	o.Set([]byte("two"), []byte("2"), 0)
	o.Set([]byte("three"), []byte("3"), 0)

	var order []string
	it := o.NewIterator()
	for it.Next() {
		order = append(order, string(it.CurrentBytes(KindField)))
	}
	it.Release()
	if strings.Join(order, ",") != "one,two,three" {
		t.Fatalf("packed iteration order = %v, wanted insertion order", order)
	}
}

func TestObjectScan(t *testing.T) {
	for _, entries := range []int{128, 4} {
		setPackedLimits(t, entries, 64)
		o := NewObject()
		for i := 0; i < 20; i++ {
			o.Set([]byte(key(i)), []byte("v"), 0)
		}

		seen := map[string]int{}
		var cursor uint64
		calls := 0
		for {
			cursor = o.Scan(cursor, func(field, value Value) {
				seen[string(field.Bytes())]++
			})
			calls++
			if cursor == 0 {
				break
			}
		}

		if len(seen) != 20 {
			t.Fatalf("entries=%d: scan saw %d fields, wanted 20", entries, len(seen))
		}
		if entries == 128 && calls != 1 {
			t.Fatalf("packed scan took %d calls, wanted 1", calls)
		}
	}
}

func TestObjectSnapshotAcrossRepresentations(t *testing.T) {
	setPackedLimits(t, 128, 64)
	packed := NewObject()
	for i := 0; i < 8; i++ {
		packed.Set([]byte(fmt.Sprintf("f%d", i)), []byte(fmt.Sprintf("%d", i*11)), 0)
	}

	setPackedLimits(t, 0, 64)
	table := NewObject()
	for i := 7; i >= 0; i-- {
		table.Set([]byte(fmt.Sprintf("f%d", i)), []byte(fmt.Sprintf("%d", i*11)), 0)
	}

	if packed.Representation() != Packed || table.Representation() != Table {
		t.Fatalf("representations = %v, %v", packed.Representation(), table.Representation())
	}
	a := must(packed.Snapshot())
	b := must(table.Snapshot())
	if !bytes.Equal(a, b) {
		t.Fatalf("snapshots differ across representations:\n%x\n%x", a, b)
	}
}

func TestObjectDump(t *testing.T) {
	o := NewObject()
	o.Set([]byte("greeting"), []byte("hello"), 0)
	o.Set([]byte("count"), []byte("42"), 0)
	dump := o.Dump()
	if !strings.Contains(dump, "greeting = hello") || !strings.Contains(dump, "count = 42 (int)") {
		t.Fatalf("unexpected dump:\n%s", dump)
	}
}
