package cipher

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ARIA is the 128-bit block cipher standardized in RFC 5794, used by the
// AEAD_ARIA_*_GCM and ARIA-CTR protection profiles (RFC 8269). Unlike every
// other cipher this package wraps, no ARIA implementation exists anywhere in
// this module's dependency graph or in the wider pack it was grounded on
// (see DESIGN.md) — this is a from-scratch transcription of RFC 5794 §2,
// structured the same way this package's AES adapter wraps crypto/aes: a
// cipher.Block backed by a precomputed encryption/decryption key schedule.
//
// The substitution/diffusion structure and round-constant derivation below
// follow RFC 5794 §2.3/§2.4 as closely as this implementation could transcribe
// without access to the published test vectors to check against (no ARIA
// vectors exist in the retrieved reference pack either). The tests in this
// package therefore check only that decryption inverts encryption and that
// ARIA output differs from AES, not agreement with RFC 5794's vectors.
type ariaCipher struct {
	roundKeys [][BlockSize]byte
	rounds    int
}

func newARIACipher(key []byte) (cipher.Block, error) {
	var rounds int
	switch len(key) {
	case 16:
		rounds = 12
	case 24:
		rounds = 14
	case 32:
		rounds = 16
	default:
		return nil, errors.Errorf("invalid ARIA key length: %d", len(key))
	}

	return &ariaCipher{
		roundKeys: ariaKeySchedule(key, rounds),
		rounds:    rounds,
	}, nil
}

func (c *ariaCipher) BlockSize() int { return BlockSize }

func (c *ariaCipher) Encrypt(dst, src []byte) {
	ariaCrypt(dst, src, c.roundKeys, c.rounds, false)
}

func (c *ariaCipher) Decrypt(dst, src []byte) {
	ariaCrypt(dst, src, c.roundKeys, c.rounds, true)
}

// ariaCrypt runs the 12/14/16-round substitution-permutation network. Odd
// rounds apply substitution layer SL1, even rounds apply SL2; every round but
// the last is followed by the linear diffusion layer A. The final round
// replaces the diffusion layer with a second key whitening step, per RFC 5794
// Figure 2.
func ariaCrypt(dst, src []byte, roundKeys [][BlockSize]byte, rounds int, inverse bool) {
	var state [BlockSize]byte
	copy(state[:], src)

	keys := roundKeys
	if inverse {
		keys = ariaInvertSchedule(roundKeys, rounds)
	}

	for r := 0; r < rounds-1; r++ {
		xorBlock(&state, &keys[r])
		if r%2 == 0 {
			substitute(&state, sbox1, sbox2, sbox3, sbox4)
		} else {
			substitute(&state, sbox3, sbox4, sbox1, sbox2)
		}
		state = diffuse(state)
	}

	// Final round: whiten, substitute, whiten again (no diffusion layer).
	xorBlock(&state, &keys[rounds-1])
	if (rounds-1)%2 == 0 {
		substitute(&state, sbox1, sbox2, sbox3, sbox4)
	} else {
		substitute(&state, sbox3, sbox4, sbox1, sbox2)
	}
	xorBlock(&state, &keys[rounds])

	copy(dst, state[:])
}

func xorBlock(state *[BlockSize]byte, key *[BlockSize]byte) {
	for i := range state {
		state[i] ^= key[i]
	}
}

// substitute applies the four constituent byte-substitution tables in the
// repeating 4-byte pattern laid out in RFC 5794 §2.4.1 (SL1 uses sb1,sb2 on
// alternating bytes; SL2 swaps in sb3,sb4).
func substitute(state *[BlockSize]byte, a, b, c, d [256]byte) {
	for i := 0; i < BlockSize; i += 4 {
		state[i] = a[state[i]]
		state[i+1] = b[state[i+1]]
		state[i+2] = c[state[i+2]]
		state[i+3] = d[state[i+3]]
	}
}

// diffuse applies ARIA's involutive binary diffusion matrix A (RFC 5794
// §2.4.3), which mixes each output byte from seven of the sixteen input
// bytes. A is its own inverse, which is what allows decryption to reuse the
// same matrix with the key schedule reversed.
func diffuse(x [BlockSize]byte) [BlockSize]byte {
	var y [BlockSize]byte
	y[0] = x[3] ^ x[4] ^ x[6] ^ x[8] ^ x[9] ^ x[13] ^ x[14]
	y[1] = x[2] ^ x[5] ^ x[7] ^ x[8] ^ x[9] ^ x[12] ^ x[15]
	y[2] = x[1] ^ x[4] ^ x[6] ^ x[10] ^ x[11] ^ x[12] ^ x[15]
	y[3] = x[0] ^ x[5] ^ x[7] ^ x[10] ^ x[11] ^ x[13] ^ x[14]
	y[4] = x[0] ^ x[2] ^ x[5] ^ x[8] ^ x[11] ^ x[14] ^ x[15]
	y[5] = x[1] ^ x[3] ^ x[4] ^ x[9] ^ x[10] ^ x[14] ^ x[15]
	y[6] = x[0] ^ x[2] ^ x[7] ^ x[9] ^ x[10] ^ x[12] ^ x[13]
	y[7] = x[1] ^ x[3] ^ x[6] ^ x[8] ^ x[11] ^ x[12] ^ x[13]
	y[8] = x[0] ^ x[1] ^ x[4] ^ x[7] ^ x[10] ^ x[13] ^ x[15]
	y[9] = x[0] ^ x[1] ^ x[5] ^ x[6] ^ x[11] ^ x[12] ^ x[14]
	y[10] = x[2] ^ x[3] ^ x[5] ^ x[6] ^ x[8] ^ x[13] ^ x[15]
	y[11] = x[2] ^ x[3] ^ x[4] ^ x[7] ^ x[9] ^ x[12] ^ x[14]
	y[12] = x[1] ^ x[2] ^ x[6] ^ x[7] ^ x[9] ^ x[11] ^ x[12]
	y[13] = x[0] ^ x[3] ^ x[6] ^ x[7] ^ x[8] ^ x[10] ^ x[13]
	y[14] = x[0] ^ x[3] ^ x[4] ^ x[5] ^ x[9] ^ x[11] ^ x[14]
	y[15] = x[1] ^ x[2] ^ x[4] ^ x[5] ^ x[8] ^ x[10] ^ x[15]
	return y
}

// Round constants CK1..CK3, RFC 5794 §2.3.
var ariaC1 = mustHex("517cc1b727220a94fe13abe8fa9a6ee0")
var ariaC2 = mustHex("6db14acc9e21c820ff28b1d5ef5de2b0")
var ariaC3 = mustHex("db92371d2126e9700324977504e8c90e")

func mustHex(s string) [16]byte {
	var b [16]byte
	for i := 0; i < 16; i++ {
		hi := hexNibble(s[2*i])
		lo := hexNibble(s[2*i+1])
		b[i] = hi<<4 | lo
	}
	return b
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// ariaKeySchedule expands a 128/192/256-bit master key into rounds+1 128-bit
// round keys, per RFC 5794 §2.3. KL/KR split the master key into its first
// 128 bits and remaining bits (zero-padded for a 128-bit key).
func ariaKeySchedule(key []byte, rounds int) [][BlockSize]byte {
	var kl, kr [BlockSize]byte
	copy(kl[:], key[:BlockSize])
	if len(key) > BlockSize {
		copy(kr[:], key[BlockSize:])
	}

	ck1, ck2, ck3 := ariaC1, ariaC2, ariaC3
	switch len(key) {
	case 24:
		ck1, ck2, ck3 = ariaC2, ariaC3, ariaC1
	case 32:
		ck1, ck2, ck3 = ariaC3, ariaC1, ariaC2
	}

	w0 := kl
	w1 := xorBlocks(ariaFO(w0, ck1), kr)
	w2 := xorBlocks(ariaFE(w1, ck2), w0)
	w3 := xorBlocks(ariaFO(w2, ck3), w1)

	// Round-key rotation amounts, RFC 5794 §2.3 Table 3 (128-bit schedule;
	// the 192/256-bit schedules reuse the same generator with two/four more
	// rounds of output, which is how this generator is driven to rounds+1
	// keys regardless of key size).
	rots := []int{19, 31, 67, 97, 109}

	keys := make([][BlockSize]byte, 0, rounds+1)
	words := [4][BlockSize]byte{w0, w1, w2, w3}
	for i := 0; len(keys) < rounds+1; i++ {
		a := words[i%4]
		b := words[(i+1)%4]
		rot := rots[i%len(rots)]
		keys = append(keys, xorBlocks(a, rotateRight(b, rot)))
	}
	return keys
}

func ariaFO(x [BlockSize]byte, ck [16]byte) [BlockSize]byte {
	xorBlock(&x, &ck)
	substitute(&x, sbox1, sbox2, sbox3, sbox4)
	return diffuse(x)
}

func ariaFE(x [BlockSize]byte, ck [16]byte) [BlockSize]byte {
	xorBlock(&x, &ck)
	substitute(&x, sbox3, sbox4, sbox1, sbox2)
	return diffuse(x)
}

func xorBlocks(a, b [BlockSize]byte) [BlockSize]byte {
	var out [BlockSize]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// rotateRight rotates a 128-bit value (as a 16-byte big-endian block) right
// by n bits.
func rotateRight(b [BlockSize]byte, n int) [BlockSize]byte {
	n %= 128
	hi := binary.BigEndian.Uint64(b[0:8])
	lo := binary.BigEndian.Uint64(b[8:16])
	var rhi, rlo uint64
	if n == 0 {
		rhi, rlo = hi, lo
	} else if n < 64 {
		rhi = hi>>uint(n) | lo<<uint(64-n)
		rlo = lo>>uint(n) | hi<<uint(64-n)
	} else {
		m := n - 64
		rhi = lo>>uint(m) | hi<<uint(64-m)
		rlo = hi>>uint(m) | lo<<uint(64-m)
	}
	var out [BlockSize]byte
	binary.BigEndian.PutUint64(out[0:8], rhi)
	binary.BigEndian.PutUint64(out[8:16], rlo)
	return out
}

// ariaInvertSchedule reverses the round-key order and pre/post whitening
// layout required for decryption. ARIA's diffusion layer A is an involution,
// so decryption reuses ariaCrypt's forward structure with the key schedule
// run back to front (RFC 5794 §2.5).
func ariaInvertSchedule(keys [][BlockSize]byte, rounds int) [][BlockSize]byte {
	out := make([][BlockSize]byte, rounds+1)
	out[0] = keys[rounds]
	out[rounds] = keys[0]
	for i := 1; i < rounds; i++ {
		out[i] = diffuse(keys[rounds-i])
	}
	return out
}
