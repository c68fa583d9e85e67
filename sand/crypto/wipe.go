package crypto

import (
	"crypto/subtle"
	"runtime"
)

// Wipe overwrites b with zeros. This is best-effort: copies made by the
// runtime or by cipher implementations are out of reach.
//
//go:noinline
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(b)
}
