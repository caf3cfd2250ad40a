// Package password hashes, verifies and vets account passwords.
package password

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash indicates a stored hash that cannot be parsed. It is
// distinct from a password mismatch so callers can tell data corruption from
// a wrong password.
var ErrMalformedHash = errors.New("malformed password hash")

// Params are the Argon2id cost parameters. They are encoded into every hash
// so stored hashes stay verifiable after the defaults change.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follow the OWASP Argon2id baseline.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

var b64 = base64.RawStdEncoding

// Hasher produces and checks Argon2id hashes in PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type Hasher struct {
	params Params
	pepper []byte
}

// NewHasher returns a hasher. A non-empty pepper is mixed into every
// password with HMAC-SHA256 before key derivation and is never stored.
func NewHasher(params Params, pepper string) *Hasher {
	if params.SaltLength == 0 || params.KeyLength == 0 {
		params = DefaultParams
	}
	h := &Hasher{params: params}
	if pepper != "" {
		h.pepper = []byte(pepper)
	}
	return h
}

// Hash derives a hash with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return h.HashWithSalt(password, salt), nil
}

// HashWithSalt derives a hash from password and salt. The output is
// deterministic for a given hasher, password and salt.
func (h *Hasher) HashWithSalt(password string, salt []byte) string {
	p := h.params
	key := argon2.IDKey(h.prepare(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism, b64.EncodeToString(salt), b64.EncodeToString(key))
}

// Verify reports whether password matches encoded. The comparison runs in
// constant time. A hash that does not parse yields ErrMalformedHash.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey(h.prepare(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func (h *Hasher) prepare(password string) []byte {
	if len(h.pepper) == 0 {
		return []byte(password)
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return params, salt, key, nil
}
