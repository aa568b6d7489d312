// Package fastindex builds an XOR filter over a static set of 64-bit
// keys that doubles as a minimal-ish perfect hash index: besides the
// usual probabilistic Contains, every key present at construction is
// also assigned a stable, unique slot via Index, usable by the caller as
// an array index into externally stored payloads.
//
// Construction is a randomized hypergraph-peeling algorithm (Builder)
// that retries with a re-derived seed on failure; querying (Filter) is a
// handful of XORs and is safe for unlimited concurrent readers.
package fastindex

// BuildUint8 constructs an 8-bit-fingerprint Filter over keys, which the
// caller must guarantee are pairwise distinct. It is a convenience
// wrapper around NewBuilder(cfg).Build(keys) for callers who don't need
// to reuse a Builder's scratch space across constructions.
func BuildUint8(keys []uint64, cfg Config) (*Filter[uint8], error) {
	cfg.FingerprintWidth = 8
	b, err := NewBuilder[uint8](cfg)
	if err != nil {
		return nil, err
	}
	return b.Build(keys)
}

// BuildUint16 is BuildUint8 with a 16-bit fingerprint.
func BuildUint16(keys []uint64, cfg Config) (*Filter[uint16], error) {
	cfg.FingerprintWidth = 16
	b, err := NewBuilder[uint16](cfg)
	if err != nil {
		return nil, err
	}
	return b.Build(keys)
}

// BuildUint32 is BuildUint8 with a 32-bit fingerprint.
func BuildUint32(keys []uint64, cfg Config) (*Filter[uint32], error) {
	cfg.FingerprintWidth = 32
	b, err := NewBuilder[uint32](cfg)
	if err != nil {
		return nil, err
	}
	return b.Build(keys)
}

// RebuildUint8 reconstructs an 8-bit-fingerprint Filter from keys and a
// seed previously obtained from a Filter's Seed method, without Build's
// retry/re-mix loop. See Builder.Rebuild.
func RebuildUint8(keys []uint64, seed uint64, cfg Config) (*Filter[uint8], error) {
	cfg.FingerprintWidth = 8
	b, err := NewBuilder[uint8](cfg)
	if err != nil {
		return nil, err
	}
	return b.Rebuild(keys, seed)
}

// RebuildUint16 is RebuildUint8 with a 16-bit fingerprint.
func RebuildUint16(keys []uint64, seed uint64, cfg Config) (*Filter[uint16], error) {
	cfg.FingerprintWidth = 16
	b, err := NewBuilder[uint16](cfg)
	if err != nil {
		return nil, err
	}
	return b.Rebuild(keys, seed)
}

// RebuildUint32 is RebuildUint8 with a 32-bit fingerprint.
func RebuildUint32(keys []uint64, seed uint64, cfg Config) (*Filter[uint32], error) {
	cfg.FingerprintWidth = 32
	b, err := NewBuilder[uint32](cfg)
	if err != nil {
		return nil, err
	}
	return b.Rebuild(keys, seed)
}
