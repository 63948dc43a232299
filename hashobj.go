package hashkv

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/andreyvit/hashkv/pairlist"
)

// Representation tags for Object. A hash starts Packed and may switch to
// Table once; it never switches back.
type Representation uint8

const (
	Packed Representation = iota
	Table
)

func (r Representation) String() string {
	switch r {
	case Packed:
		return "packed"
	case Table:
		return "table"
	default:
		return fmt.Sprintf("Representation(%d)", uint8(r))
	}
}

// Conversion thresholds. A Packed hash converts to Table when it holds more
// than maxPackedEntries pairs, or when TryConversion sees a field or value
// longer than maxPackedValue bytes.
var (
	maxPackedEntries = 128
	maxPackedValue   = 64
)

// SetMaxPackedEntries sets the pair-count threshold past which a Packed
// hash converts to Table.
func SetMaxPackedEntries(n int) { maxPackedEntries = n }

// SetMaxPackedValue sets the byte-length threshold past which a field or
// value forces conversion to Table.
func SetMaxPackedValue(n int) { maxPackedValue = n }

// Value is a field value read from an Object: either a byte string, or an
// integer stored inline by the packed representation.
type Value struct {
	Str   []byte
	Int   int64
	IsInt bool
}

// Len returns the value's length in bytes as if it were spelled out.
func (v Value) Len() int {
	if v.IsInt {
		return digits10(v.Int)
	}
	return len(v.Str)
}

// Bytes materializes the value as a fresh byte string.
func (v Value) Bytes() []byte {
	if v.IsInt {
		return strconv.AppendInt(nil, v.Int, 10)
	}
	return bytes.Clone(v.Str)
}

func digits10(v int64) int {
	var buf [20]byte
	return len(strconv.AppendInt(buf[:0], v, 10))
}

// Object is a field→value hash with two representations: a packed pair list
// for small hashes, and a Dict for large ones. Field names are unique in
// both.
type Object struct {
	repr   Representation
	packed *pairlist.List
	table  *Dict
}

// NewObject creates an empty hash in the packed representation.
func NewObject() *Object {
	return &Object{repr: Packed, packed: pairlist.New()}
}

// Representation returns the current representation tag.
func (o *Object) Representation() Representation { return o.repr }

// Len returns the number of fields.
func (o *Object) Len() int {
	switch o.repr {
	case Packed:
		return o.packed.Len() / 2
	case Table:
		return int(o.table.Len())
	default:
		panic(fmt.Errorf("hashkv: unknown hash representation %d", o.repr))
	}
}

// TryConversion converts a Packed hash to Table if any of the given fields
// or values is too long for the packed representation. Callers batch this
// over all arguments of an update before issuing Sets.
func (o *Object) TryConversion(args ...[]byte) {
	if o.repr != Packed {
		return
	}
	for _, a := range args {
		if len(a) > maxPackedValue {
			o.convertToTable()
			return
		}
	}
}

// Get returns the value of field.
func (o *Object) Get(field []byte) (Value, bool) {
	switch o.repr {
	case Packed:
		fptr := o.packed.Index(0)
		if fptr != -1 {
			fptr = o.packed.Find(fptr, field, 1)
		}
		if fptr == -1 {
			return Value{}, false
		}
		vptr := o.packed.Next(fptr)
		if vptr == -1 {
			panic(fmt.Errorf("hashkv: packed hash field without value"))
		}
		bstr, ival, isInt := o.packed.Get(vptr)
		if isInt {
			return Value{Int: ival, IsInt: true}, true
		}
		return Value{Str: bstr}, true
	case Table:
		e := o.table.Find(field)
		if e == nil {
			return Value{}, false
		}
		return Value{Str: e.val.([]byte)}, true
	default:
		panic(fmt.Errorf("hashkv: unknown hash representation %d", o.repr))
	}
}

// ValueLength returns the byte length of the value of field, or 0 if the
// field is absent.
func (o *Object) ValueLength(field []byte) int {
	v, ok := o.Get(field)
	if !ok {
		return 0
	}
	return v.Len()
}

// Exists reports whether field is present.
func (o *Object) Exists(field []byte) bool {
	_, ok := o.Get(field)
	return ok
}

// SetFlags controls ownership of the byte strings passed to Set. With a
// Take flag the Object stores the passed slice itself; without, it stores a
// copy. Packed hashes always copy into the packed buffer, so the flags only
// matter for the Table representation.
type SetFlags uint8

const (
	TakeField SetFlags = 1 << iota
	TakeValue
)

// Set stores value under field, reporting whether the field existed before.
// A Packed hash that grows past the entry limit (SetMaxPackedEntries)
// converts to Table.
func (o *Object) Set(field, value []byte, flags SetFlags) bool {
	var update bool
	switch o.repr {
	case Packed:
		fptr := o.packed.Index(0)
		if fptr != -1 {
			fptr = o.packed.Find(fptr, field, 1)
		}
		if fptr != -1 {
			vptr := o.packed.Next(fptr)
			if vptr == -1 {
				panic(fmt.Errorf("hashkv: packed hash field without value"))
			}
			update = true
			o.packed.Delete(vptr)
			o.packed.Insert(vptr, value)
		} else {
			o.packed.Push(field, pairlist.Tail)
			o.packed.Push(value, pairlist.Tail)
		}
		if o.Len() > maxPackedEntries {
			o.convertToTable()
		}
	case Table:
		e := o.table.Find(field)
		if e != nil {
			update = true
			if flags&TakeValue != 0 {
				e.val = value
			} else {
				e.val = bytes.Clone(value)
			}
		} else {
			f, v := field, value
			if flags&TakeField == 0 {
				f = bytes.Clone(field)
			}
			if flags&TakeValue == 0 {
				v = bytes.Clone(value)
			}
			o.table.Add(f, v)
		}
	default:
		panic(fmt.Errorf("hashkv: unknown hash representation %d", o.repr))
	}
	return update
}

// Delete removes field, reporting whether it was present. A Table hash that
// drops below one tenth of its bucket count shrinks.
func (o *Object) Delete(field []byte) bool {
	switch o.repr {
	case Packed:
		fptr := o.packed.Index(0)
		if fptr != -1 {
			fptr = o.packed.Find(fptr, field, 1)
		}
		if fptr == -1 {
			return false
		}
		o.packed.Delete(fptr) // field
		o.packed.Delete(fptr) // value, now at the same offset
		return true
	case Table:
		if !o.table.Delete(field) {
			return false
		}
		if htNeedsResize(o.table) {
			_ = o.table.Resize()
		}
		return true
	default:
		panic(fmt.Errorf("hashkv: unknown hash representation %d", o.repr))
	}
}

const hashTableMinFillPercent = 10

func htNeedsResize(d *Dict) bool {
	size, used := d.Slots(), d.Len()
	return size > initialTableSize && used*100/size < hashTableMinFillPercent
}

// convertToTable moves every pair into a freshly sized Dict and swaps the
// representation.
func (o *Object) convertToTable() {
	d := NewDict(BytesType)
	_ = d.Expand(uint64(o.Len()))

	it := o.NewIterator()
	for it.Next() {
		f := it.CurrentBytes(KindField)
		v := it.CurrentBytes(KindValue)
		if !d.Add(f, v) {
			panic(fmt.Errorf("hashkv: duplicate field %q while converting packed hash", f))
		}
	}
	it.Release()

	o.repr = Table
	o.table = d
	o.packed = nil
}

// Scan iterates the hash through a stateless cursor, calling fn once per
// field. For a Table hash this has Dict.Scan's cursor semantics; a Packed
// hash is small, so everything is delivered in one call and 0 is returned.
func (o *Object) Scan(cursor uint64, fn func(field, value Value)) uint64 {
	switch o.repr {
	case Packed:
		it := o.NewIterator()
		for it.Next() {
			fn(it.Current(KindField), it.Current(KindValue))
		}
		it.Release()
		return 0
	case Table:
		return o.table.Scan(cursor, func(e *Entry) {
			fn(Value{Str: e.key.([]byte)}, Value{Str: e.val.([]byte)})
		}, nil)
	default:
		panic(fmt.Errorf("hashkv: unknown hash representation %d", o.repr))
	}
}
