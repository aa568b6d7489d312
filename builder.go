package fastindex

import (
	"crypto/rand"
	"encoding/binary"
)

// Config configures a Builder. Segments defaults to 3 (spec.md's studied
// case) when left zero. Seed of zero means "choose one at random". A
// MaxAttempts of zero means unbounded retries.
type Config struct {
	Segments         int
	FingerprintWidth int
	Seed             uint64
	MaxAttempts      int
}

func (c Config) segments() int {
	if c.Segments == 0 {
		return 3
	}
	return c.Segments
}

func (c Config) validate(n int) error {
	s := c.segments()
	if n <= 0 {
		return invalidConfigf("key count must be positive, got %d", n)
	}
	if s < 2 {
		return invalidConfigf("segments must be >= 2, got %d", s)
	}
	if s > maxSegments {
		return invalidConfigf("segments must be <= %d, got %d", maxSegments, s)
	}
	switch c.FingerprintWidth {
	case 0, 8, 16, 32:
	default:
		return invalidConfigf("fingerprint width must be 8, 16 or 32, got %d", c.FingerprintWidth)
	}
	return nil
}

// counter is C[i][j] from spec.md §3: totalKeys counts how many live keys
// currently touch slot j of segment i; xorMultiplex XOR-accumulates their
// hashes, so when totalKeys==1 it equals that one remaining hash.
type counter struct {
	totalKeys    int16
	xorMultiplex uint64
}

type queueEntry struct {
	hash uint64
	slot uint32
}

// stackEntry is one peeled (keyHash, absoluteSlot) pair from spec.md §3's
// stack S, pushed in peel order and walked in reverse during encoding.
type stackEntry struct {
	hash    uint64
	absSlot uint32
}

// unclaimedOrigin marks a fingerprint slot no key was ever peeled into.
// It must fall outside [0, maxSegments), the range of real segment ids,
// since a slot's own address already forces its segment (absSlot/l), so
// 0 is a live value there and can't double as "empty".
const unclaimedOrigin = 0xFF

// Builder runs the peeling-based constructor of spec.md §4.3–§4.4 for a
// fixed fingerprint width F. It owns scratch state sized to the key set
// it last built for; that state is reused across Build calls so repeated
// construction over similarly sized key sets amortizes allocation (spec
// §5), and can be dropped early with Release.
type Builder[F Width] struct {
	cfg      Config
	segments int

	l int // band length, m/segments, valid after Build sizes it

	counters [][]counter
	queues   [][]queueEntry
	stack    []stackEntry
	segMap   [][]int

	lastAttempts int
}

// LastAttempts reports how many seeds Build tried before the most recent
// successful construction (1 means the first seed peeled cleanly). A
// successful Rebuild sets it to 1. It is zero until Build or Rebuild has
// succeeded at least once.
func (b *Builder[F]) LastAttempts() int {
	return b.lastAttempts
}

// NewBuilder validates cfg against a placeholder key count of one
// (segments/width only)
// and returns a ready-to-use Builder. Per-construction validation of n
// happens again inside Build, since n is only known there.
func NewBuilder[F Width](cfg Config) (*Builder[F], error) {
	if err := cfg.validate(1); err != nil {
		return nil, err
	}
	s := cfg.segments()
	b := &Builder[F]{
		cfg:      cfg,
		segments: s,
		segMap:   buildSegmentMap(s),
		counters: make([][]counter, s),
		queues:   make([][]queueEntry, s),
	}
	return b, nil
}

func buildSegmentMap(s int) [][]int {
	m := make([][]int, s)
	for i := 0; i < s; i++ {
		others := make([]int, 0, s-1)
		for j := 0; j < s; j++ {
			if j != i {
				others = append(others, j)
			}
		}
		m[i] = others
	}
	return m
}

// Release drops the builder's scratch arrays, returning their memory to
// the garbage collector. The Builder remains usable afterward; the next
// Build simply reallocates.
func (b *Builder[F]) Release() {
	for i := range b.counters {
		b.counters[i] = nil
	}
	for i := range b.queues {
		b.queues[i] = nil
	}
	b.stack = nil
	b.l = 0
}

// Build runs the outer retry loop of spec.md §4.3 over keys, which the
// caller must guarantee are pairwise distinct, and returns the resulting
// immutable Filter. It returns ErrConstructionBudgetExceeded if
// Config.MaxAttempts is positive and exceeded.
func (b *Builder[F]) Build(keys []uint64) (*Filter[F], error) {
	n := len(keys)
	if err := b.cfg.validate(n); err != nil {
		return nil, err
	}

	m := sizeFor(n, b.segments)
	l := m / b.segments
	b.prepare(l, n)

	seed := b.cfg.Seed
	if seed == 0 {
		seed = randomSeed()
	}

	attempts := 0
	for {
		attempts++
		if b.cfg.MaxAttempts > 0 && attempts > b.cfg.MaxAttempts {
			return nil, budgetExceeded(attempts - 1)
		}
		seed = mix(seed)
		if b.attempt(keys, seed) {
			break
		}
	}
	b.lastAttempts = attempts

	fingerprints, originTag, claimHash := b.encode()
	return &Filter[F]{
		seed:         seed,
		segments:     b.segments,
		l:            uint32(l),
		fingerprints: fingerprints,
		originTag:    originTag,
		claimHash:    claimHash,
	}, nil
}

// Rebuild reconstructs a Filter for an exact, already-known seed, with no
// retry and no re-mixing: seed is fed to attempt verbatim. It exists for
// callers that recorded a Filter.Seed from a prior Build and need to
// reproduce that exact filter later (Build's own Config.Seed is only a
// starting point for its retry loop, since it re-derives the seed with
// mix before every attempt and stores whichever derived value finally
// peeled). Rebuild fails with ErrConstructionBudgetExceeded if seed does
// not peel keys cleanly, which should not happen for a seed Filter.Seed
// actually returned over the same keys.
func (b *Builder[F]) Rebuild(keys []uint64, seed uint64) (*Filter[F], error) {
	n := len(keys)
	if err := b.cfg.validate(n); err != nil {
		return nil, err
	}

	m := sizeFor(n, b.segments)
	l := m / b.segments
	b.prepare(l, n)

	if !b.attempt(keys, seed) {
		return nil, budgetExceeded(1)
	}
	b.lastAttempts = 1

	fingerprints, originTag, claimHash := b.encode()
	return &Filter[F]{
		seed:         seed,
		segments:     b.segments,
		l:            uint32(l),
		fingerprints: fingerprints,
		originTag:    originTag,
		claimHash:    claimHash,
	}, nil
}

// prepare grows (or reuses) the scratch arrays for a construction over n
// keys with band length l, and rebuilds the segment map if segments
// changed since the last Build (it never does, in practice, since
// segments is fixed at NewBuilder time, but the check is free).
func (b *Builder[F]) prepare(l, n int) {
	if len(b.segMap) != b.segments {
		b.segMap = buildSegmentMap(b.segments)
	}
	for i := 0; i < b.segments; i++ {
		b.counters[i] = grow(b.counters[i], l)
		b.queues[i] = b.queues[i][:0]
		if cap(b.queues[i]) < l {
			b.queues[i] = make([]queueEntry, 0, l)
		}
	}
	b.stack = grow(b.stack, 0)
	if cap(b.stack) < n {
		b.stack = make([]stackEntry, 0, n)
	}
	b.l = l
}

func (b *Builder[F]) resetCounters() {
	for i := 0; i < b.segments; i++ {
		for j := range b.counters[i] {
			b.counters[i][j] = counter{}
		}
		b.queues[i] = b.queues[i][:0]
	}
	b.stack = b.stack[:0]
}

// attempt runs one full pass of spec.md §4.3 steps 2-6 for a fixed seed,
// returning true if every key was peeled exactly once.
func (b *Builder[F]) attempt(keys []uint64, seed uint64) bool {
	b.resetCounters()

	s := b.segments
	l := uint32(b.l)

	var idx [maxSegments]uint32

	// Step 3: seed counters.
	for _, k := range keys {
		h := mix(k ^ seed)
		for i := 0; i < s; i++ {
			idx[i] = segmentIndex(h, i, s, l)
		}
		for i := 0; i < s; i++ {
			c := &b.counters[i][idx[i]]
			c.totalKeys++
			c.xorMultiplex ^= h
		}
	}

	// Step 4: scan for seeds to peel.
	for i := 0; i < s; i++ {
		for j := range b.counters[i] {
			if b.counters[i][j].totalKeys == 1 {
				b.queues[i] = append(b.queues[i], queueEntry{hash: b.counters[i][j].xorMultiplex, slot: uint32(j)})
			}
		}
	}

	// Step 5: drain loop. Each per-segment queue is drained LIFO; order
	// within the drain doesn't affect correctness, since the XOR
	// bookkeeping is commutative and every dequeue re-checks for
	// staleness.
	peeled := 0
	for b.anyQueued() {
		for i := 0; i < s; i++ {
			for len(b.queues[i]) > 0 {
				last := len(b.queues[i]) - 1
				e := b.queues[i][last]
				b.queues[i] = b.queues[i][:last]

				j := e.slot
				if b.counters[i][j].totalKeys == 0 {
					continue // stale: already peeled via another path
				}

				h := e.hash
				b.stack = append(b.stack, stackEntry{hash: h, absSlot: uint32(i)*l + j})
				peeled++

				for _, ip := range b.segMap[i] {
					jp := segmentIndex(h, ip, s, l)
					c := &b.counters[ip][jp]
					c.totalKeys--
					c.xorMultiplex ^= h
					if c.totalKeys == 1 {
						b.queues[ip] = append(b.queues[ip], queueEntry{hash: c.xorMultiplex, slot: jp})
					}
				}
			}
		}
	}

	return peeled == len(keys)
}

func (b *Builder[F]) anyQueued() bool {
	for i := 0; i < b.segments; i++ {
		if len(b.queues[i]) > 0 {
			return true
		}
	}
	return false
}

// encode implements spec.md §4.4: walk the peel stack in reverse
// insertion order, filling fingerprints and the per-slot origin tag. When
// slot absSlot is assigned, every other slot the same key touches either
// already holds its final value (peeled later, so processed earlier in
// reverse) or still holds the zero value belonging to a key not yet
// processed — the XOR-neutral element — which is what makes one linear
// reverse pass correct.
//
// claimHash records, per slot, the mixed hash of whichever key was
// peeled into it. A slot's segment is already implied by its own address
// (absSlot/l), so originTag alone cannot tell Index whether a candidate
// slot is the querying key's own primary or another key's primary that
// happens to share the same segment — claimHash is the part that does:
// only the key that was actually peeled there produced that exact hash.
func (b *Builder[F]) encode() ([]F, []byte, []uint64) {
	s := b.segments
	l := int(b.l)
	m := l * s

	fingerprints := make([]F, m)
	originTag := make([]byte, m)
	for i := range originTag {
		originTag[i] = unclaimedOrigin
	}
	claimHash := make([]uint64, m)

	for k := len(b.stack) - 1; k >= 0; k-- {
		e := b.stack[k]
		i := int(e.absSlot) / l

		f := narrow[F](e.hash)
		var acc F
		for _, ip := range b.segMap[i] {
			jp := segmentIndex(e.hash, ip, s, uint32(l))
			acc ^= fingerprints[ip*l+int(jp)]
		}

		fingerprints[e.absSlot] = f ^ acc
		originTag[e.absSlot] = byte(i)
		claimHash[e.absSlot] = e.hash
	}

	return fingerprints, originTag, claimHash
}

// randomSeed draws 8 bytes from the operating system's CSPRNG. Seed
// choice only needs to be unpredictable enough to avoid pathological
// repeated failures across processes; crypto/rand keeps this free of any
// math/rand global-state surprises without pulling in a dependency no
// other part of this module needs.
func randomSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is only plausible on a broken kernel; fall
		// back to a fixed non-zero seed so construction can still proceed
		// deterministically rather than panicking.
		return fnvOffsetBasis
	}
	return binary.LittleEndian.Uint64(buf[:])
}
