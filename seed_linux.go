package hashkv

import (
	"golang.org/x/sys/unix"
)

func fillRandomSeed(b []byte) {
	for len(b) > 0 {
		n, err := unix.Getrandom(b, 0)
		if err != nil {
			fillRandomSeedFallback(b)
			return
		}
		b = b[n:]
	}
}
