package cipher

import (
	gocipher "crypto/cipher"
)

// f8Stream implements the f8 keystream mode used by the F8_AES_128 profile
// (RFC 3711 §4.1.2, originally specified for 3GPP UEA2). Unlike CTR, f8
// chains each keystream block through the previous one, so it cannot reuse
// crypto/cipher.NewCTR; internal/rtp/srtp.go never implements f8 (only
// AES-CM), so this is built fresh from RFC 3711's definition:
//
//	S(-1) = 0
//	IV'    = E_{k_e XOR (k_s || 0x55*)}(IV)
//	S(j)   = E_{k_e}(IV' XOR j XOR S(j-1))
type f8Stream struct {
	encKey  gocipher.Block // E_{k_e}
	ivBlock [BlockSize]byte
	prev    [BlockSize]byte
	counter uint64
	pos     int // bytes already consumed from the current keystream block
}

// NewF8Stream derives IV' by encrypting iv (zero-padded/truncated to the
// block size) with ivKeyCipher, the block cipher built from
// k_e XOR (k_s || 0x55..0x55) (see DeriveF8IVKey); encKey is the block
// cipher used for the per-block transform.
func NewF8Stream(encKey, ivKeyCipher gocipher.Block, iv []byte) gocipher.Stream {
	s := &f8Stream{encKey: encKey, pos: BlockSize}
	var ivBuf [BlockSize]byte
	copy(ivBuf[:], iv)
	ivKeyCipher.Encrypt(s.ivBlock[:], ivBuf[:])
	return s
}

// DeriveF8IVKey builds k_e XOR (k_s || 0x55, 0x55, ..., 0x55), the masked key
// RFC 3711 §4.1.2 uses to derive IV' once per packet.
func DeriveF8IVKey(encryptKey, salt []byte) []byte {
	mask := make([]byte, len(encryptKey))
	copy(mask, salt)
	for i := len(salt); i < len(mask); i++ {
		mask[i] = 0x55
	}
	out := make([]byte, len(encryptKey))
	for i := range out {
		out[i] = encryptKey[i] ^ mask[i]
	}
	return out
}

func (s *f8Stream) XORKeyStream(dst, src []byte) {
	for i := 0; i < len(src); i++ {
		if s.pos == BlockSize {
			s.refill()
		}
		dst[i] = src[i] ^ s.prev[s.pos]
		s.pos++
	}
}

func (s *f8Stream) refill() {
	var ctr [BlockSize]byte
	ctr[BlockSize-8] = byte(s.counter >> 56)
	ctr[BlockSize-7] = byte(s.counter >> 48)
	ctr[BlockSize-6] = byte(s.counter >> 40)
	ctr[BlockSize-5] = byte(s.counter >> 32)
	ctr[BlockSize-4] = byte(s.counter >> 24)
	ctr[BlockSize-3] = byte(s.counter >> 16)
	ctr[BlockSize-2] = byte(s.counter >> 8)
	ctr[BlockSize-1] = byte(s.counter)
	s.counter++

	var in [BlockSize]byte
	for i := 0; i < BlockSize; i++ {
		in[i] = s.ivBlock[i] ^ ctr[i] ^ s.prev[i]
	}
	s.encKey.Encrypt(s.prev[:], in[:])
	s.pos = 0
}
