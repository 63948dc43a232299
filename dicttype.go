package hashkv

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// DictType describes how a Dict treats its keys and values. Any callback may
// be nil: nil DupKey/DupVal stores the passed value as is, nil FreeKey/FreeVal
// does nothing, nil KeyCompare falls back to Go interface equality (which
// requires keys of a comparable type).
type DictType struct {
	Hash       func(key any) uint64
	DupKey     func(key any) any
	DupVal     func(val any) any
	KeyCompare func(a, b any) bool
	FreeKey    func(key any)
	FreeVal    func(val any)
}

func (typ *DictType) hashKey(key any) uint64 {
	return typ.Hash(key)
}

func (typ *DictType) compareKeys(a, b any) bool {
	if typ.KeyCompare != nil {
		return typ.KeyCompare(a, b)
	}
	return a == b
}

func (typ *DictType) dupKey(key any) any {
	if typ.DupKey != nil {
		return typ.DupKey(key)
	}
	return key
}

func (typ *DictType) dupVal(val any) any {
	if typ.DupVal != nil {
		return typ.DupVal(val)
	}
	return val
}

func (typ *DictType) freeKey(key any) {
	if typ.FreeKey != nil {
		typ.FreeKey(key)
	}
}

func (typ *DictType) freeVal(val any) {
	if typ.FreeVal != nil {
		typ.FreeVal(val)
	}
}

// BytesType keys a Dict by []byte using the seeded SipHash. This is the type
// behind Object's TABLE representation: safe against attacker-chosen field
// names, compared byte for byte.
var BytesType = &DictType{
	Hash:       func(key any) uint64 { return SipHash(key.([]byte)) },
	KeyCompare: func(a, b any) bool { return bytes.Equal(a.([]byte), b.([]byte)) },
}

// BytesNoCaseType is BytesType with ASCII-case-insensitive hashing and
// comparison.
var BytesNoCaseType = &DictType{
	Hash:       func(key any) uint64 { return SipHashNoCase(key.([]byte)) },
	KeyCompare: func(a, b any) bool { return equalFoldASCII(a.([]byte), b.([]byte)) },
}

// StringType keys a Dict by Go strings using unkeyed xxhash. Faster than the
// seeded types, but only for keys the process trusts (an attacker who picks
// key bytes can force collisions).
var StringType = &DictType{
	Hash: func(key any) uint64 { return xxhash.Sum64String(key.(string)) },
}

func equalFoldASCII(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i, c := range a {
		if lowerByte(c) != lowerByte(b[i]) {
			return false
		}
	}
	return true
}
