package pinhash

import "crypto/subtle"

// Kind tags how a stored credential value is encoded.
type Kind int

const (
	// Plaintext marks a value written before hashing was introduced.
	Plaintext Kind = iota
	// Hashed marks a value produced by Hash.
	Hashed
)

// Credential is a stored PIN value with its encoding resolved once at read
// time, so verification does not have to re-derive the legacy/hashed
// distinction on every call.
type Credential struct {
	kind  Kind
	value string
}

// Resolve classifies a stored value. Values matching the hash-output shape
// are treated as hashed, everything else as legacy plaintext.
func Resolve(stored string) Credential {
	if LooksHashed(stored) {
		return Credential{kind: Hashed, value: stored}
	}
	return Credential{kind: Plaintext, value: stored}
}

// Kind returns the resolved encoding.
func (c Credential) Kind() Kind { return c.kind }

// Matches reports whether plain corresponds to the stored credential.
func (c Credential) Matches(plain string) bool {
	if subtle.ConstantTimeCompare([]byte(plain), []byte(c.value)) == 1 {
		return true
	}
	if c.kind == Hashed {
		return Hash(plain) == c.value
	}
	return false
}
