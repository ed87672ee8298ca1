package util

// --------------------------------------------------------------------------
// Integer Hash Functions
// --------------------------------------------------------------------------

// WangHash64 mixes a 64-bit key with Thomas Wang's integer avalanche function.
// Every input bit affects every output bit, which makes the low bits usable
// for masking into a power-of-two bucket range.
//
// Not suitable for security-related purposes.
func WangHash64(key uint64) uint64 {
	key = (^key) + (key << 21) // key = (key << 21) - key - 1
	key = key ^ (key >> 24)
	key = (key + (key << 3)) + (key << 8) // key * 265
	key = key ^ (key >> 14)
	key = (key + (key << 2)) + (key << 4) // key * 21
	key = key ^ (key >> 28)
	key = key + (key << 31)
	return key
}

// WangHash32 is the 32-bit variant of Thomas Wang's integer hash.
//
// Not suitable for security-related purposes.
func WangHash32(key uint32) uint32 {
	key = (^key) + (key << 15) // key = (key << 15) - key - 1
	key = key ^ (key >> 12)
	key = key + (key << 2)
	key = key ^ (key >> 4)
	key = key * 2057 // key = key + (key << 3) + (key << 11)
	key = key ^ (key >> 16)
	return key
}

// --------------------------------------------------------------------------
// String Hash Function
// --------------------------------------------------------------------------

// HashString computes the djb2 hash (multiply by 33, add byte) over the full
// length of s. The hash deliberately consumes every byte, embedded NUL bytes
// included, so that two keys hash equally only under the same rule by which
// they compare equal.
func HashString(s string) uint64 {
	var hash uint64 = 5381
	for i := 0; i < len(s); i++ {
		hash = hash*33 + uint64(s[i])
	}
	return hash
}

// --------------------------------------------------------------------------
// Power-Of-Two Helpers
// --------------------------------------------------------------------------

// NextPowerOfTwo returns the smallest power of two greater than or equal to n.
// It returns 0 if the result would overflow uint64.
func NextPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	if n > (1 << 63) {
		return 0
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// IsPowerOfTwo reports whether n is a power of two. Zero is not.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// --------------------------------------------------------------------------
// String Key Validation
// --------------------------------------------------------------------------

// ValidStringKey reports whether s is usable as a string key: it must be
// non-empty and must not begin with a NUL byte.
func ValidStringKey(s string) bool {
	return len(s) > 0 && s[0] != 0
}
