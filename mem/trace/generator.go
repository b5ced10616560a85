package trace

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/rocketship/mem/cache/replacement"
)

// Pattern selects the shape of a synthetic trace.
type Pattern int

// The synthetic patterns.
const (
	// PatternStream touches every line once.
	PatternStream Pattern = iota
	// PatternLoop cycles over a fixed working set.
	PatternLoop
	// PatternMixed interleaves a looping working set with a stream.
	PatternMixed
)

var patternNames = []string{"stream", "loop", "mixed"}

func (p Pattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return "unknown"
	}

	return patternNames[p]
}

// ParsePattern converts a name such as "loop" to a Pattern.
func ParsePattern(name string) (Pattern, error) {
	for i, n := range patternNames {
		if n == name {
			return Pattern(i), nil
		}
	}

	return 0, fmt.Errorf("unknown pattern %q", name)
}

const (
	lineSize   = 64
	loopBase   = uint64(0x10000000)
	streamBase = uint64(0x80000000)
	loopPC     = uint64(0x401a2c)
	streamPC   = uint64(0x402f10)
	prefetchPC = uint64(0x403c84)
)

// GeneratorBuilder can build trace generators.
type GeneratorBuilder struct {
	pattern          Pattern
	seed             int64
	numCores         int
	workingSetLines  int
	prefetchPercent  int
	writebackPercent int
	rfoPercent       int
}

// MakeGeneratorBuilder creates a builder for a single-core looping trace
// over 4096 lines.
func MakeGeneratorBuilder() GeneratorBuilder {
	return GeneratorBuilder{
		pattern:         PatternLoop,
		seed:            1,
		numCores:        1,
		workingSetLines: 4096,
		rfoPercent:      20,
	}
}

// WithPattern sets the shape of the trace.
func (b GeneratorBuilder) WithPattern(p Pattern) GeneratorBuilder {
	b.pattern = p
	return b
}

// WithSeed sets the seed of the random stream.
func (b GeneratorBuilder) WithSeed(seed int64) GeneratorBuilder {
	b.seed = seed
	return b
}

// WithNumCores sets how many cores issue accesses, in round robin.
func (b GeneratorBuilder) WithNumCores(n int) GeneratorBuilder {
	b.numCores = n
	return b
}

// WithWorkingSetLines sets the number of lines the loop cycles over.
func (b GeneratorBuilder) WithWorkingSetLines(n int) GeneratorBuilder {
	b.workingSetLines = n
	return b
}

// WithPrefetchPercent sets the chance that an access is followed by a
// prefetch of the next line.
func (b GeneratorBuilder) WithPrefetchPercent(percent int) GeneratorBuilder {
	b.prefetchPercent = percent
	return b
}

// WithWritebackPercent sets the chance that an access is followed by a
// writeback of a random line it touched before.
func (b GeneratorBuilder) WithWritebackPercent(percent int) GeneratorBuilder {
	b.writebackPercent = percent
	return b
}

// WithRFOPercent sets the share of demand accesses that are stores.
func (b GeneratorBuilder) WithRFOPercent(percent int) GeneratorBuilder {
	b.rfoPercent = percent
	return b
}

// Build creates a generator.
func (b GeneratorBuilder) Build() *Generator {
	if b.numCores < 1 || b.workingSetLines < 1 {
		panic(fmt.Sprintf("invalid generator %+v", b))
	}

	return &Generator{
		b:   b,
		rng: rand.New(rand.NewSource(b.seed)),
	}
}

// Generator produces a deterministic synthetic trace.
type Generator struct {
	b   GeneratorBuilder
	rng *rand.Rand

	issued    uint64
	loopPos   uint64
	streamPos uint64
	pending   []Access
}

// Next returns the next access.
func (g *Generator) Next() Access {
	if len(g.pending) > 0 {
		a := g.pending[0]
		g.pending = g.pending[1:]

		return a
	}

	cpu := int(g.issued % uint64(g.b.numCores))
	g.issued++

	a := g.demand(cpu)

	if g.chance(g.b.prefetchPercent) {
		g.pending = append(g.pending, Access{
			CPU:     cpu,
			Type:    replacement.AccessPrefetch,
			PC:      prefetchPC,
			Address: a.Address + lineSize,
		})
	}

	if g.chance(g.b.writebackPercent) {
		line := uint64(g.rng.Intn(g.b.workingSetLines))
		g.pending = append(g.pending, Access{
			CPU:     cpu,
			Type:    replacement.AccessWriteback,
			Address: loopBase + line*lineSize,
		})
	}

	return a
}

// Generate returns the next n accesses.
func (g *Generator) Generate(n int) []Access {
	accesses := make([]Access, n)
	for i := range accesses {
		accesses[i] = g.Next()
	}

	return accesses
}

func (g *Generator) demand(cpu int) Access {
	t := replacement.AccessLoad
	if g.chance(g.b.rfoPercent) {
		t = replacement.AccessRFO
	}

	useLoop := false

	switch g.b.pattern {
	case PatternLoop:
		useLoop = true
	case PatternMixed:
		useLoop = g.rng.Intn(2) == 0
	}

	if useLoop {
		addr := loopBase + g.loopPos*lineSize
		g.loopPos = (g.loopPos + 1) % uint64(g.b.workingSetLines)

		return Access{CPU: cpu, Type: t, PC: loopPC, Address: addr}
	}

	addr := streamBase + g.streamPos*lineSize
	g.streamPos++

	return Access{CPU: cpu, Type: t, PC: streamPC, Address: addr}
}

func (g *Generator) chance(percent int) bool {
	return percent > 0 && g.rng.Intn(100) < percent
}
