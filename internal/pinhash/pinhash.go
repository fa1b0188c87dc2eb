// Package pinhash turns a plaintext PIN into a storable, comparably-hashed
// token.
//
// This is NOT a cryptographic hash. It is a pair of 32-bit rolling hashes
// with a length checksum, kept for compatibility with tokens already stored
// by deployed terminals. Its only purpose is to avoid keeping the raw PIN
// in the document store; staff account passwords use bcrypt on the server
// side instead.
package pinhash

import (
	"crypto/subtle"
	"regexp"
	"strconv"
)

// pinSalt is mixed into the second rolling-hash pass. Changing it
// invalidates every stored token.
const pinSalt = "tk_pin_salt_v1"

// hashedShape matches the output of Hash: a decimal hash sum followed by
// the base-36 input length. Short all-digit PINs can incidentally match,
// which is why Verify checks byte equality first.
var hashedShape = regexp.MustCompile(`^[0-9]{5,}[0-9a-z]{1,2}$`)

func rollingHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

func abs64(v int32) int64 {
	n := int64(v)
	if n < 0 {
		return -n
	}
	return n
}

// Hash computes the storable token for plain: the sum of the absolute
// values of two rolling hashes (raw input, and input + static salt),
// with the input length appended in base 36 as a cheap checksum.
func Hash(plain string) string {
	sum := abs64(rollingHash(plain)) + abs64(rollingHash(plain+pinSalt))
	return strconv.FormatInt(sum, 10) + strconv.FormatInt(int64(len(plain)), 36)
}

// Verify reports whether plain corresponds to the stored token.
//
// Byte equality is tried first so terminals still holding legacy
// plaintext-stored PINs keep working. Only values matching the hash-output
// shape are recomputed and compared as hashes.
func Verify(plain, stored string) bool {
	if subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1 {
		return true
	}
	if !LooksHashed(stored) {
		return false
	}
	return Hash(plain) == stored
}

// LooksHashed is a heuristic format check: it tells stored Hash output
// apart from legacy plaintext values. Verify and Resolve rely on it to
// pick the comparison path for a stored credential.
func LooksHashed(value string) bool {
	return len(value) >= 6 && hashedShape.MatchString(value)
}
