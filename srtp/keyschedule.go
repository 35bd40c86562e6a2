package srtp

import (
	"github.com/lanikai/dtlssrtp/internal/cipher"
)

// Key derivation labels, RFC 3711 §4.3.2.
const (
	labelSRTPEncryption     byte = 0x00
	labelSRTPAuthentication byte = 0x01
	labelSRTPSalt           byte = 0x02
	labelSRTCPEncryption    byte = 0x03
	labelSRTCPAuthentication byte = 0x04
	labelSRTCPSalt          byte = 0x05
)

// sessionKeys holds the derived per-direction keys for one generation
// (index/KDR value) of an SRTP/SRTCP context.
type sessionKeys struct {
	srtpEncrypt  []byte
	srtpAuth     []byte
	srtpSalt     []byte
	srtcpEncrypt []byte
	srtcpAuth    []byte
	srtcpSalt    []byte

	generation uint64
}

// deriveSessionKeys runs the RFC 3711 §4.3 PRF six times (once per label) to
// produce the full set of session keys for one (masterKey, masterSalt, r)
// generation. aria selects ARIA-CM as the PRF cipher in place of AES-CM, per
// RFC 8269's extension of the same construction to ARIA profiles.
//
// Grounded on internal/rtp/srtp.go's deriveKey and defaultPRF, generalized
// to parametrize the PRF cipher and to compute all six derived keys through
// the single deriveKey primitive rather than inlining the AES-CM call four
// times.
func deriveSessionKeys(masterKey, masterSalt []byte, r uint64, keyBits, saltBits, authTagBits int, aria bool) (*sessionKeys, error) {
	keyLen := keyBits / 8
	saltLen := saltBits / 8
	authKeyLen := 20 // RFC 3711 default HMAC-SHA1 key length, n_a = 160 bits

	encKey, err := deriveKey(masterKey, masterSalt, r, labelSRTPEncryption, keyLen, aria)
	if err != nil {
		return nil, err
	}
	authKey, err := deriveKey(masterKey, masterSalt, r, labelSRTPAuthentication, authKeyLen, aria)
	if err != nil {
		return nil, err
	}
	saltKey, err := deriveKey(masterKey, masterSalt, r, labelSRTPSalt, saltLen, aria)
	if err != nil {
		return nil, err
	}
	rtcpEncKey, err := deriveKey(masterKey, masterSalt, r, labelSRTCPEncryption, keyLen, aria)
	if err != nil {
		return nil, err
	}
	rtcpAuthKey, err := deriveKey(masterKey, masterSalt, r, labelSRTCPAuthentication, authKeyLen, aria)
	if err != nil {
		return nil, err
	}
	rtcpSaltKey, err := deriveKey(masterKey, masterSalt, r, labelSRTCPSalt, saltLen, aria)
	if err != nil {
		return nil, err
	}

	return &sessionKeys{
		srtpEncrypt:  encKey,
		srtpAuth:     authKey,
		srtpSalt:     saltKey,
		srtcpEncrypt: rtcpEncKey,
		srtcpAuth:    rtcpAuthKey,
		srtcpSalt:    rtcpSaltKey,
		generation:   r,
	}, nil
}

// deriveKey computes a single session key of n bytes for the given label and
// key-derivation-rate generation r, per RFC 3711 §4.3:
//
//	key_id = label || r
//	x      = key_id XOR master_salt, right-aligned
//	key    = PRF_n(master_key, x || 0x0000)
//
// where the PRF is AES-CM (or, for ARIA profiles, ARIA-CM) keyed by
// master_key and run over the 128-bit IV x*2^16.
func deriveKey(masterKey, masterSalt []byte, r uint64, label byte, n int, aria bool) ([]byte, error) {
	x := append([]byte(nil), masterSalt...)

	if r > 0 {
		xor48(x[len(x)-6:], r)
	}
	x[len(x)-7] ^= label

	if len(x) < cipher.BlockSize {
		x = append(x, make([]byte, cipher.BlockSize-len(x))...)
	}

	block, err := cipher.NewBlock(masterKey, aria)
	if err != nil {
		return nil, err
	}

	key := make([]byte, n)
	cipher.EncryptCTR(block, x, key)
	return key, nil
}
