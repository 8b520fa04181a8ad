package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes read from crypto/rand. It panics
// if the system random source fails, which leaves nothing sensible to do.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Used to drop passwords from memory once they were sent.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
