package cipher

import (
	gocipher "crypto/cipher"
)

// CTRStream builds a counter-mode keystream generator for a given block
// cipher and already-constructed 128-bit IV. Both the AES-CM and ARIA-CM
// protection profiles share this function; only the IV construction (see
// ../../srtp/nonce.go) and the underlying cipher.Block differ between them.
//
// Grounded on internal/rtp/srtp.go's aesCounterMode, generalized to accept
// any cipher.Block rather than constructing AES directly, so the same
// helper serves both AES-CM and ARIA-CM profiles.
func CTRStream(block gocipher.Block, iv []byte) gocipher.Stream {
	return gocipher.NewCTR(block, iv)
}

// EncryptCTR XORs buf in place with the counter-mode keystream for block/iv.
// CTR is self-inverse, so the same function serves both encryption and
// decryption, the same as cipher.NewCTR's use for both directions in
// internal/rtp/srtp.go.
func EncryptCTR(block gocipher.Block, iv, buf []byte) {
	CTRStream(block, iv).XORKeyStream(buf, buf)
}
