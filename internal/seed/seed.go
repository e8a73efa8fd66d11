// Package seed expands one run seed into independent deterministic streams.
package seed

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
)

// Source is a deterministic random stream that can split off children.
type Source struct {
	r *rand.Rand
}

// New creates a stream for seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, Murmur64(seed)))}
}

// Next returns the next raw 64-bit value.
func (s *Source) Next() uint64 { return s.r.Uint64() }

// Child splits off an independent stream; it consumes one value of s.
func (s *Source) Child() *Source {
	return New(Murmur64(s.Next()))
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 { return s.r.Float64() }

// IntN returns a value in [0, n).
func (s *Source) IntN(n int) int { return s.r.IntN(n) }

// Perm returns a random permutation of [0, n).
func (s *Source) Perm(n int) []int { return s.r.Perm(n) }

// Shuffle permutes n elements through swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) { s.r.Shuffle(n, swap) }

// Murmur64 is the 64-bit murmur3 finalizer.
func Murmur64(v uint64) uint64 {
	v ^= v >> 33
	v *= 0xff51afd7ed558ccd
	v ^= v >> 33
	v *= 0xc4ceb9fe1a85ec53
	v ^= v >> 33

	return v
}

// FromString turns a user seed into a number. Decimal and 0x-prefixed hex
// values are used as is, anything else is hashed.
func FromString(s string) uint64 {
	s = strings.TrimSpace(s)
	if h, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		if v, err := strconv.ParseUint(h, 16, 64); err == nil {
			return v
		}
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return uint64(v)
	}

	return xxhash.Sum64String(s)
}

// Fingerprint returns a stable hash of an image, used to compare runs.
func Fingerprint(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Format renders a seed the way FromString reads it back.
func Format(v uint64) string {
	return strconv.FormatUint(v, 10)
}
