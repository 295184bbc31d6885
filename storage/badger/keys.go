package badger

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// Key prefix for cached vectors.
// Format: vec:<model>:<8-byte blake2b of text>
const vectorPrefix = "vec"

// textHash returns a 64-bit BLAKE2b digest of text.
// Identical text always produces the identical hash.
func textHash(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// makeModelPrefix generates the key prefix shared by all vectors of a model.
// Format: prefix:model:
func makeModelPrefix(model string) []byte {
	buf := make([]byte, 0, len(vectorPrefix)+len(model)+2)
	buf = append(buf, vectorPrefix...)
	buf = append(buf, ':')
	buf = append(buf, model...)
	buf = append(buf, ':')
	return buf
}

// makeVectorKey generates the key for text's vector under model.
// The hash is written BigEndian so keys sort by hash within a model.
func makeVectorKey(model, text string) []byte {
	prefix := makeModelPrefix(model)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], textHash(text))
	return buf
}

// ownsKey reports whether key belongs directly to the model whose prefix is
// prefix. A model named "a:b" shares the "a:" prefix bytes but its keys are
// longer.
func ownsKey(prefix, key []byte) bool {
	return len(key) == len(prefix)+8
}
