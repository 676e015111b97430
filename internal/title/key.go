// key.go derives deterministic storage IDs from titles.
//
// Separated from title.go because key derivation is a storage concern:
// every persisted entity (pages, history logs, reference-index entries)
// is keyed by one of these IDs, and the whole self-healing model depends
// on the derivation being stable and collision-free.

package title

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// keySize is the digest length in bytes. 16 bytes (32 hex chars) keeps
// keys short enough for human inspection while making a collision a
// practical impossibility. A collision here is a correctness bug, not a
// performance issue.
const keySize = 16

// Key returns the storage ID for a title under the given kind prefix,
// e.g. "page:3f2a...". The kind prefix keeps entity families in disjoint,
// enumerable key ranges of the underlying store.
func Key(kind string, t Title) string {
	return kind + ":" + digest(t)
}

// NormalizedKey is Key over the lowercased parts, used by the
// case-insensitive title index.
func NormalizedKey(kind string, t Title) string {
	return kind + ":" + digest(t.Normalized())
}

func digest(t Title) string {
	h, err := blake2b.New(keySize, nil)
	if err != nil {
		// Unkeyed blake2b cannot fail; don't silently ignore if it does.
		panic("blake2b.New: " + err.Error())
	}
	// Length-prefixing each part makes the encoding injective for any
	// byte content: no separator byte exists that a part is guaranteed
	// not to contain.
	var n [4]byte
	for _, part := range []string{t.Domain, t.Namespace, t.Name} {
		binary.LittleEndian.PutUint32(n[:], uint32(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
