package hashkv

import (
	"fmt"
)

// Kind selects the field or the value half of the pair an ObjectIterator is
// positioned on.
type Kind int

const (
	KindField Kind = iota
	KindValue
)

// ObjectIterator walks the pairs of an Object in whatever order the current
// representation yields them. Over a Table hash it holds a safe Dict
// iterator, so rehashing is suspended until Release.
type ObjectIterator struct {
	o    *Object
	fptr int
	vptr int
	di   *Iterator
	de   *Entry
}

// NewIterator returns an iterator positioned before the first pair.
func (o *Object) NewIterator() *ObjectIterator {
	it := objIterPool.Get().(*ObjectIterator)
	*it = ObjectIterator{o: o, fptr: -1, vptr: -1}
	if o.repr == Table {
		it.di = o.table.NewSafeIterator()
	}
	return it
}

// Next advances to the next pair, reporting whether one exists.
func (it *ObjectIterator) Next() bool {
	switch it.o.repr {
	case Packed:
		pl := it.o.packed
		if it.fptr == -1 {
			it.fptr = pl.Index(0)
		} else {
			it.fptr = pl.Next(it.vptr)
		}
		if it.fptr == -1 {
			return false
		}
		it.vptr = pl.Next(it.fptr)
		if it.vptr == -1 {
			panic(fmt.Errorf("hashkv: packed hash field without value"))
		}
		return true
	case Table:
		it.de = it.di.Next()
		return it.de != nil
	default:
		panic(fmt.Errorf("hashkv: unknown hash representation %d", it.o.repr))
	}
}

// Current returns the field or value of the pair the iterator is on. Byte
// strings alias the underlying storage and are only valid until the next
// mutation; use CurrentBytes for a copy.
func (it *ObjectIterator) Current(kind Kind) Value {
	switch it.o.repr {
	case Packed:
		p := it.fptr
		if kind == KindValue {
			p = it.vptr
		}
		bstr, ival, isInt := it.o.packed.Get(p)
		if isInt {
			return Value{Int: ival, IsInt: true}
		}
		return Value{Str: bstr}
	case Table:
		if kind == KindValue {
			return Value{Str: it.de.val.([]byte)}
		}
		return Value{Str: it.de.key.([]byte)}
	default:
		panic(fmt.Errorf("hashkv: unknown hash representation %d", it.o.repr))
	}
}

// CurrentBytes returns a freshly allocated copy of the field or value.
func (it *ObjectIterator) CurrentBytes(kind Kind) []byte {
	return it.Current(kind).Bytes()
}

// Release ends the iteration, resuming rehash on a Table hash. The iterator
// must not be used afterwards.
func (it *ObjectIterator) Release() {
	if it.di != nil {
		ensure(it.di.Release())
	}
	*it = ObjectIterator{}
	objIterPool.Put(it)
}
