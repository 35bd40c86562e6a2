// Package cipher implements the block and AEAD cipher primitives used to
// build the SRTP/SRTCP protection profiles in RFC 3711, RFC 7714, RFC 8269,
// and RFC 8723. It is the "cipher primitives" layer (C1): everything above
// this package deals in keys, salts, and indices; everything in this package
// deals in raw key material and byte buffers.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/pkg/errors"
)

// BlockSize is the block size, in bytes, of every cipher this package
// supports (AES and ARIA are both 128-bit-block ciphers).
const BlockSize = 16

// NewBlock constructs a block cipher for the given key. The aria bool
// selects the cipher family (ARIA when true, AES otherwise); key length
// then selects the key size. Both accept 16-, 24- and 32-byte keys, though
// no profile in the registry uses a 24-byte key.
func NewBlock(key []byte, aria bool) (cipher.Block, error) {
	if aria {
		return newARIACipher(key)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Errorf("invalid AES key: %v", err)
	}
	return block, nil
}
