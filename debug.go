package hashkv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// DumpStats renders a human-readable report of the Dict's bucket shape,
// chain-length histogram included.
func (d *Dict) DumpStats() string {
	var buf strings.Builder
	s := d.Stats()
	dumpTableStats(&buf, "main hash table", &s.Main)
	if s.Rehash != nil {
		dumpTableStats(&buf, "rehashing target", s.Rehash)
	}
	return buf.String()
}

func dumpTableStats(w *strings.Builder, name string, ts *TableStats) {
	if ts.Used == 0 {
		fmt.Fprintf(w, "%s: empty\n", name)
		return
	}
	fmt.Fprintf(w, "%s stats:\n", name)
	fmt.Fprintf(w, " table size: %d\n", ts.Size)
	fmt.Fprintf(w, " number of elements: %d\n", ts.Used)
	fmt.Fprintf(w, " different slots: %d\n", ts.UsedSlots)
	fmt.Fprintf(w, " max chain length: %d\n", ts.MaxChainLen)
	fmt.Fprintf(w, " avg chain length (counted): %.02f\n", ts.AvgChainLenCounted())
	fmt.Fprintf(w, " avg chain length (computed): %.02f\n", ts.AvgChainLenComputed())
	fmt.Fprintf(w, " Chain length distribution:\n")
	for i, n := range ts.ChainLengths {
		if n == 0 {
			continue
		}
		if i == statsVectLen-1 {
			fmt.Fprintf(w, "   >= %d: %d (%.02f%%)\n", i, n, float64(n)/float64(ts.Size)*100)
		} else {
			fmt.Fprintf(w, "   %d: %d (%.02f%%)\n", i, n, float64(n)/float64(ts.Size)*100)
		}
	}
}

// Dump renders the hash's pairs for debugging, one per line, in iteration
// order.
func (o *Object) Dump() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s hash, %d fields:\n", o.repr, o.Len())
	it := o.NewIterator()
	for it.Next() {
		f := it.Current(KindField)
		v := it.Current(KindValue)
		if v.IsInt {
			fmt.Fprintf(&buf, "  %s = %d (int)\n", loggableBytes(f.Bytes()), v.Int)
		} else {
			fmt.Fprintf(&buf, "  %s = %s\n", loggableBytes(f.Bytes()), loggableBytes(v.Str))
		}
	}
	it.Release()
	return buf.String()
}

type snapshotPair struct {
	Field string `msgpack:"f"`
	Value string `msgpack:"v"`
}

// Snapshot encodes the hash's content as msgpack, pairs sorted by field and
// values spelled out as strings, so that two hashes with equal content
// produce equal snapshots regardless of representation. Meant for
// diagnostics and tests, not for persistence.
func (o *Object) Snapshot() ([]byte, error) {
	pairs := make([]snapshotPair, 0, o.Len())
	it := o.NewIterator()
	for it.Next() {
		pairs = append(pairs, snapshotPair{
			Field: string(it.Current(KindField).Bytes()),
			Value: string(it.Current(KindValue).Bytes()),
		})
	}
	it.Release()
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Field < pairs[j].Field })
	return msgpack.Marshal(pairs)
}
