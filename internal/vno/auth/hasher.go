// Package auth hashes account credentials before they are sent to the
// directory service.
package auth

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ErrAlgorithmUnavailable is returned when the configured hash algorithm is
// not supported by this build.
var ErrAlgorithmUnavailable = errors.New("credential hash algorithm unavailable")

// Algorithm names accepted by NewHasher.
const (
	AlgorithmMD5     = "md5"
	AlgorithmSHA256  = "sha256"
	AlgorithmSHA3    = "sha3-256"
	AlgorithmBLAKE2b = "blake2b-256"
)

// DefaultAlgorithm is the algorithm legacy master servers expect.
const DefaultAlgorithm = AlgorithmMD5

var algorithms = map[string]func() (hash.Hash, error){
	AlgorithmMD5:    func() (hash.Hash, error) { return md5.New(), nil },
	AlgorithmSHA256: func() (hash.Hash, error) { return sha256.New(), nil },
	AlgorithmSHA3:   func() (hash.Hash, error) { return sha3.New256(), nil },
	AlgorithmBLAKE2b: func() (hash.Hash, error) {
		return blake2b.New256(nil)
	},
}

// Algorithms returns the supported algorithm names in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hasher turns a plaintext password into the hex digest sent on the wire.
type Hasher struct {
	algorithm string
	newHash   func() (hash.Hash, error)
}

// NewHasher returns a Hasher for the named algorithm.
//
// Postcondition: Returns ErrAlgorithmUnavailable for unknown names.
func NewHasher(algorithm string) (*Hasher, error) {
	fn, ok := algorithms[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithmUnavailable, algorithm)
	}
	return &Hasher{algorithm: algorithm, newHash: fn}, nil
}

// Algorithm returns the algorithm name.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash returns the lowercase hex digest of password.
func (h *Hasher) Hash(password string) (string, error) {
	d, err := h.newHash()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrAlgorithmUnavailable, h.algorithm, err)
	}
	d.Write([]byte(password))
	return hex.EncodeToString(d.Sum(nil)), nil
}
