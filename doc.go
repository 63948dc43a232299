/*
Package hashkv implements the in-memory container engines that back the HASH
data type of a key-value server.

We implement:

1. IntSet, a compact sorted set of signed integers stored in a single
contiguous buffer, transparently widening its element encoding (16 → 32 → 64
bits) as values require.

2. Dict, a chained hash table with incremental (amortized-O(1)) resize across
two live tables, safe and unsafe iterators, random sampling, and a stateless
reversed-bit-order scan cursor that stays complete across resizes.

3. Object, a polymorphic field→value hash that starts out as a packed list of
pairs (see the pairlist subpackage) and switches to a Dict once it grows past
configurable thresholds. The conversion is one-way.

# Technical Details

**Hashing.**
Dict hashes keys with seeded SipHash-2-4 (case-sensitive and ASCII
case-insensitive variants). The 16-byte seed is process-wide, set once via
SetHashSeed or self-initialized from the OS on first use. DictTypes for
trusted keys may instead use the faster unkeyed xxhash (StringType).

**Incremental rehash.**
Growing a Dict allocates a second bucket array but moves nothing. Every
subsequent lookup or mutation migrates one bucket, bounded to 10 empty-bucket
probes per step, until the old table drains. While a rehash is in flight both
tables are probed on every operation. A live safe iterator suspends rehash
steps entirely.

**Scan cursor.**
Dict.Scan walks buckets in reversed-bit-increment order. This is the only
cursor discipline that keeps a stateless scan complete when the table grows
or shrinks between calls: every key present for the whole scan is emitted at
least once, though keys may be emitted more than once across resizes.

**Representations.**
An Object is a tagged variant: PACKED (a pairlist.List of alternating field
and value entries, linear lookup) or TABLE (a Dict keyed by field bytes).
An Object converts PACKED → TABLE when Set makes the pair count exceed the
entry limit (SetMaxPackedEntries), or when TryConversion sees a field or value
longer than the value limit (SetMaxPackedValue); Set itself does not check
lengths. It never converts back.

The containers are not safe for concurrent mutation; callers serialize access.
*/
package hashkv
