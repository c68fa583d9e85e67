// Package envelope frames message plaintext before it is encrypted.
//
// Layout:
//
//	1 byte:  flag (FlagRaw or FlagLZ4)
//	N bytes: body, LZ4-framed when flag is FlagLZ4
//
// The receiver reads the flag, so compression is a sender-only setting.
package envelope
