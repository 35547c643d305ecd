package sdruntime

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomSeed returns a non-negative random seed for image generation,
// drawn from crypto/rand so seeds stay unpredictable across processes.
// Callers pass -1 in GenerateParams.Seed to request a random seed.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand is effectively infallible; a fixed seed beats a panic.
		return 42
	}

	seed := int64(binary.LittleEndian.Uint64(buf[:]))
	if seed < 0 {
		seed = -seed
	}
	// -MinInt64 overflows back to MinInt64 and stays negative.
	if seed < 0 {
		seed = 0
	}
	return seed
}
