package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Algorithm names a supported content-hash function.
type Algorithm string

const (
	AlgoSHA256 Algorithm = "sha256"
	AlgoXXH3   Algorithm = "xxh3"
)

// DefaultAlgorithm is used when a store is created without an explicit
// choice. sha256 keeps checksums stable across machines; xxh3-128 trades
// collision resistance for speed and is suitable for throwaway fixtures.
const DefaultAlgorithm = AlgoSHA256

// ParseAlgorithm validates an algorithm name from config.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case AlgoSHA256:
		return AlgoSHA256, nil
	case AlgoXXH3:
		return AlgoXXH3, nil
	case "":
		return DefaultAlgorithm, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// HashBytes computes the raw content hash of data under the given
// algorithm and returns it as a lowercase hex-encoded Hash.
func HashBytes(algo Algorithm, data []byte) Hash {
	switch algo {
	case AlgoXXH3:
		sum := xxh3.Hash128(data).Bytes()
		return Hash(hex.EncodeToString(sum[:]))
	default:
		sum := sha256.Sum256(data)
		return Hash(hex.EncodeToString(sum[:]))
	}
}

// HashObject computes the hash of the envelope "type len\0content". The
// envelope keeps objects of different types from colliding even when
// their payload bytes are identical.
func HashObject(algo Algorithm, objType ObjectType, data []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	if algo == AlgoXXH3 {
		raw := make([]byte, 0, len(header)+len(data))
		raw = append(raw, header...)
		raw = append(raw, data...)
		sum := xxh3.Hash128(raw).Bytes()
		return Hash(hex.EncodeToString(sum[:]))
	}
	h := sha256.New()
	h.Write([]byte(header))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}
