package binary

import "github.com/cespare/xxhash/v2"

// Seal32 returns the low 32 bits of the XXH64 digest of data. It seals the
// container superblock.
func Seal32(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

// VerifySeal32 reports whether data matches a stored Seal32 value.
func VerifySeal32(data []byte, expected uint32) bool {
	return Seal32(data) == expected
}

// Fletcher32 computes the Fletcher-32 checksum of the compressed catalog
// block. Words are little-endian; an odd trailing byte is zero padded.
func Fletcher32(data []byte) uint32 {
	const mod = 65535
	var lo, hi uint32
	for len(data) > 0 {
		w := uint32(data[0])
		if len(data) > 1 {
			w |= uint32(data[1]) << 8
			data = data[2:]
		} else {
			data = data[1:]
		}
		lo = (lo + w) % mod
		hi = (hi + lo) % mod
	}
	return hi<<16 | lo
}

// VerifyFletcher32 reports whether data matches a stored Fletcher-32 value.
func VerifyFletcher32(data []byte, expected uint32) bool {
	return Fletcher32(data) == expected
}
