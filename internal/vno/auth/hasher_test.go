package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHasher_KnownVectors(t *testing.T) {
	cases := map[string]string{
		AlgorithmMD5:    "900150983cd24fb0d6963f7d28e17f72",
		AlgorithmSHA256: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		AlgorithmSHA3:   "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532",
	}
	for alg, want := range cases {
		h, err := NewHasher(alg)
		require.NoError(t, err, alg)
		got, err := h.Hash("abc")
		require.NoError(t, err, alg)
		assert.Equal(t, want, got, alg)
	}
}

func TestHasher_BLAKE2bLength(t *testing.T) {
	h, err := NewHasher(AlgorithmBLAKE2b)
	require.NoError(t, err)
	got, err := h.Hash("abc")
	require.NoError(t, err)
	assert.Len(t, got, 64)
}

func TestHasher_UnknownAlgorithm(t *testing.T) {
	_, err := NewHasher("rot13")
	assert.ErrorIs(t, err, ErrAlgorithmUnavailable)
}

func TestAlgorithms_Sorted(t *testing.T) {
	assert.Equal(t, []string{AlgorithmBLAKE2b, AlgorithmMD5, AlgorithmSHA256, AlgorithmSHA3}, Algorithms())
}

func TestProperty_HashDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		alg := rapid.SampledFrom(Algorithms()).Draw(rt, "algorithm")
		pw := rapid.String().Draw(rt, "password")
		h, err := NewHasher(alg)
		if err != nil {
			rt.Fatalf("hasher %s: %v", alg, err)
		}
		a, _ := h.Hash(pw)
		b, _ := h.Hash(pw)
		if a != b {
			rt.Fatalf("%s not deterministic: %s vs %s", alg, a, b)
		}
	})
}
