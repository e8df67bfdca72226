package ghostmem

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20"
)

const (
	cipherKeySize   = chacha20.KeySize   // 256 bits
	cipherNonceSize = chacha20.NonceSize // 96 bits
)

// cipherKey is a 256-bit CSPRNG-derived key, scrubbed on Close. Only
// allocated when Config.EncryptOnSpill is set.
type cipherKey struct {
	bytes [cipherKeySize]byte
}

func newCipherKey() (*cipherKey, error) {
	k := &cipherKey{}
	if _, err := rand.Read(k.bytes[:]); err != nil {
		return nil, errors.Wrap(err, "generate cipher key")
	}
	return k, nil
}

// scrub destroys the key's memory where the host permits, per spec.md §5
// "Shared-resource policy".
func (k *cipherKey) scrub() {
	if k == nil {
		return
	}
	for i := range k.bytes {
		k.bytes[i] = 0
	}
}

// pageNonce derives the keystream nonce for a page address per spec.md
// §4.6: the first 96 bits of the little-endian page address, right-padded
// with zero bytes. Page addresses are unique for the lifetime of the
// process, and the key is fresh per Initialize, so (key, nonce) pairs are
// never reused across two different plaintexts.
func pageNonce(pageAddr uintptr) [cipherNonceSize]byte {
	var nonce [cipherNonceSize]byte
	binary.LittleEndian.PutUint64(nonce[:8], uint64(pageAddr))
	return nonce
}

// xorKeystream XORs src with the keystream derived from (key, nonce(page))
// and returns the result. Used identically on encrypt and decrypt — it's a
// pure keystream XOR, so the operation is its own inverse.
func xorKeystream(key *cipherKey, pageAddr uintptr, src []byte) ([]byte, error) {
	nonce := pageNonce(pageAddr)
	c, err := chacha20.NewUnauthenticatedCipher(key.bytes[:], nonce[:])
	if err != nil {
		return nil, errors.Wrap(err, "init chacha20 keystream")
	}
	dst := make([]byte, len(src))
	c.XORKeyStream(dst, src)
	return dst, nil
}
