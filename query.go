package fastindex

// Filter is the immutable artifact produced by Builder.Build: spec.md
// §4.5's query object. It holds only plain slices, so unlimited
// concurrent readers are safe without synchronization.
type Filter[F Width] struct {
	seed         uint64
	segments     int
	l            uint32
	fingerprints []F
	originTag    []byte
	claimHash    []uint64
}

// Contains reports probabilistic membership: always true for a key
// present at construction, true with probability ~2^-W (the fingerprint
// width) for one that was not.
func (f *Filter[F]) Contains(key uint64) bool {
	h := mix(key ^ f.seed)
	target := narrow[F](h)

	var acc F
	for i := 0; i < f.segments; i++ {
		j := segmentIndex(h, i, f.segments, f.l)
		acc ^= f.fingerprints[uint32(i)*f.l+j]
	}
	return target == acc
}

// Index returns a stable slot in [0, Size()) that uniquely identifies
// key's position, for key present at construction. For an absent key it
// returns -1, including on a fingerprint collision, unless the absent
// key's mixed 64-bit hash equals that of a present key, in which case it
// returns that key's slot.
// Callers needing certainty must follow a non-negative Index with an
// equality check against externally stored payloads, per spec.md §7.
func (f *Filter[F]) Index(key uint64) int {
	h := mix(key ^ f.seed)
	target := narrow[F](h)

	var slots [maxSegments]uint32
	var acc F
	for i := 0; i < f.segments; i++ {
		j := segmentIndex(h, i, f.segments, f.l)
		abs := uint32(i)*f.l + j
		slots[i] = abs
		acc ^= f.fingerprints[abs]
	}
	if target != acc {
		return -1
	}

	// A candidate slot is key's own primary only if it was claimed at all
	// (originTag != unclaimedOrigin) and the hash that claimed it is
	// exactly this key's hash: the slot's segment is already implied by
	// its address, so matching on segment alone can't tell key's primary
	// apart from an unrelated key peeled into the same segment band.
	for i := 0; i < f.segments; i++ {
		abs := slots[i]
		if f.originTag[abs] != unclaimedOrigin && f.claimHash[abs] == h {
			return int(abs)
		}
	}
	return -1
}

// Size returns m, the length of the fingerprint array (and the exclusive
// upper bound of Index's return value).
func (f *Filter[F]) Size() int {
	return len(f.fingerprints)
}

// Seed returns the seed this filter was constructed with: the post-mix
// seed of Builder.Build's successful attempt, the same value Contains and
// Index re-derive hashes from.
func (f *Filter[F]) Seed() uint64 {
	return f.seed
}

// Segments returns the hash-segment count (s) used to build this filter.
func (f *Filter[F]) Segments() int {
	return f.segments
}

// FingerprintWidth returns W, the bit width of each stored fingerprint
// word (8, 16, or 32). Persistence code needs this alongside Seed and
// Segments to decode a serialized filter, since spec.md §6 leaves the
// wire format itself up to the caller.
func (f *Filter[F]) FingerprintWidth() int {
	return bitWidth[F]()
}

// Fingerprints exposes the raw fingerprint array for external
// serialization. Callers must not mutate the returned slice.
func (f *Filter[F]) Fingerprints() []F {
	return f.fingerprints
}

// OriginTags exposes the raw per-slot origin-segment array for external
// serialization. It is nil-length-preserved but only meaningful when
// Index is used; Contains-only callers may ignore it. Callers must not
// mutate the returned slice.
func (f *Filter[F]) OriginTags() []byte {
	return f.originTag
}

// ClaimHashes exposes the raw per-slot claiming-hash array Index uses to
// disambiguate same-segment candidates. Like OriginTags it is only
// meaningful for Index; Contains-only callers may ignore it. Callers
// must not mutate the returned slice.
func (f *Filter[F]) ClaimHashes() []uint64 {
	return f.claimHash
}

// PackedOriginTagBytes reports how many bytes OriginTags would occupy if
// packed four tags (2 bits each, since segments rarely exceeds 4) per
// byte instead of the one-byte-per-slot layout this package stores them
// in, per the packing alternative spec.md §9 describes. This package
// does not implement that packing; the method exists so a caller
// choosing to serialize a packed form can size its buffer correctly.
func (f *Filter[F]) PackedOriginTagBytes() int {
	return ceilDiv(len(f.originTag), 4)
}
