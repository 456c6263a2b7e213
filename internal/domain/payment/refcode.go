package payment

import (
	"crypto/rand"
)

const (
	refCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	refCodeLength   = 20
)

// NewRefCode returns a 20-character lowercase alphanumeric reference code.
// Uniqueness is not checked against existing orders; at 36^20 possibilities a
// collision is assumed not to happen.
func NewRefCode() string {
	buf := make([]byte, refCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = refCodeAlphabet[int(b)%len(refCodeAlphabet)]
	}
	return string(buf)
}
