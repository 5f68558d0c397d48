// Package gen produces synthetic event rows for the loader. Keys follow a
// uniform or Zipfian distribution; every other column is uniform. A seeded
// generator is exactly reproducible: the same seed and the same sequence of
// calls yield the same rows.
package gen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// Distribution selects how user keys are drawn.
type Distribution string

const (
	Uniform Distribution = "uniform"
	Zipf    Distribution = "zipf"
)

// ParseDistribution accepts the CLI spelling of a distribution.
func ParseDistribution(s string) (Distribution, error) {
	switch d := Distribution(strings.ToLower(strings.TrimSpace(s))); d {
	case Uniform, Zipf:
		return d, nil
	case "zipfian":
		return Zipf, nil
	default:
		return "", fmt.Errorf("unknown distribution %q (want uniform or zipf)", s)
	}
}

const (
	// KeySpace is the size of the user key domain, keys are in [1, KeySpace].
	KeySpace = 1_000_000
	// ZipfSkew is the exponent of the Zipfian key distribution.
	ZipfSkew = 1.03
	// Window is how far back created_at may reach from generation time.
	Window = 30 * 24 * time.Hour

	statusCount  = 5
	categoryMax  = 5000
	amountBound  = 1000.0
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Row is one synthetic event. It is consumed by exactly one insert batch.
type Row struct {
	UserID    int64
	CreatedAt time.Time
	Amount    float64
	Status    int16
	Category  int32
	Payload   string
}

// NewRand returns the deterministic source used for a given seed. Workers
// derive their seed as base+index and call this, never sharing a source.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Option adjusts a Generator.
type Option func(*Generator)

// WithClock replaces time.Now as the anchor for created_at.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// Generator draws rows from a private random source. It is not safe for
// concurrent use; each worker owns one.
type Generator struct {
	rng          *rand.Rand
	zipf         *rand.Zipf
	distribution Distribution
	payloadSize  int
	now          func() time.Time
}

// New returns a generator seeded from system entropy.
func New(d Distribution, payloadSize int, opts ...Option) *Generator {
	return newGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), d, payloadSize, opts)
}

// NewSeeded returns a reproducible generator.
func NewSeeded(d Distribution, payloadSize int, seed uint64, opts ...Option) *Generator {
	return newGenerator(NewRand(seed), d, payloadSize, opts)
}

func newGenerator(rng *rand.Rand, d Distribution, payloadSize int, opts []Option) *Generator {
	if payloadSize < 0 {
		payloadSize = 0
	}
	g := &Generator{
		rng:          rng,
		distribution: d,
		payloadSize:  payloadSize,
		now:          time.Now,
	}
	if d == Zipf {
		// Zipf yields [0, imax] with P(k) ∝ (1+k)^-s, so k+1 is the rank.
		g.zipf = rand.NewZipf(rng, ZipfSkew, 1, KeySpace-1)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NextBatch returns n rows drawn one after another.
func (g *Generator) NextBatch(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = g.Next()
	}
	return rows
}

// Next draws a single row. The draw order of the columns is fixed.
func (g *Generator) Next() Row {
	userID := g.userID()
	age := time.Duration(g.rng.Int64N(int64(Window/time.Second))) * time.Second
	amount := math.Round(g.rng.Float64()*amountBound*100) / 100
	status := int16(g.rng.IntN(statusCount))
	category := int32(g.rng.IntN(categoryMax + 1))

	return Row{
		UserID:    userID,
		CreatedAt: g.now().UTC().Add(-age),
		Amount:    amount,
		Status:    status,
		Category:  category,
		Payload:   g.payload(),
	}
}

func (g *Generator) userID() int64 {
	if g.zipf != nil {
		return int64(g.zipf.Uint64()) + 1
	}
	return g.rng.Int64N(KeySpace) + 1
}

func (g *Generator) payload() string {
	if g.payloadSize == 0 {
		return ""
	}
	b := make([]byte, g.payloadSize)
	for i := range b {
		b[i] = alphanumeric[g.rng.IntN(len(alphanumeric))]
	}
	return string(b)
}
