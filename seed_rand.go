package hashkv

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

func fillRandomSeedFallback(b []byte) {
	if _, err := rand.Read(b); err == nil {
		return
	}
	// Out of entropy sources; a weak seed still keeps the tables working.
	var t [8]byte
	binary.LittleEndian.PutUint64(t[:], uint64(time.Now().UnixNano()))
	for i := range b {
		b[i] = t[i&7]
	}
}
