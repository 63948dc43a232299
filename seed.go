package hashkv

import (
	"sync"
)

// The seed feeds the keyed SipHash used by the default DictTypes. It is
// process-wide and write-once: either the embedder installs it via
// SetHashSeed before touching any Dict, or the first use self-initializes
// it from the OS.
var (
	hashSeed     [16]byte
	hashSeedOnce sync.Once
)

// SetHashSeed installs the process-wide 16-byte hash seed. It may be called
// at most once, before any Dict keyed by a seeded type is mutated; a second
// call (or a call after the seed self-initialized) panics.
func SetHashSeed(seed [16]byte) {
	installed := false
	hashSeedOnce.Do(func() {
		hashSeed = seed
		installed = true
	})
	if !installed {
		panic("hashkv: hash seed already set")
	}
}

func currentHashSeed() *[16]byte {
	hashSeedOnce.Do(func() {
		fillRandomSeed(hashSeed[:])
	})
	return &hashSeed
}
