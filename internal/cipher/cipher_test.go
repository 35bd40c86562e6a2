package cipher

import (
	"crypto/aes"
	"encoding/hex"
	"strings"
	"testing"
)

func checkHex(value []byte, expectedHex string) bool {
	return hex.EncodeToString(value) == strings.ToLower(expectedHex)
}

// AES-CM Test Vectors: https://tools.ietf.org/html/rfc3711#appendix-B.2
func TestAESCounterModeVectors(t *testing.T) {
	sessionKey, _ := hex.DecodeString("2B7E151628AED2A6ABF7158809CF4F3C")
	sessionSalt, _ := hex.DecodeString("F0F1F2F3F4F5F6F7F8F9FAFBFCFD0000")

	block, err := NewBlock(sessionKey, false)
	if err != nil {
		t.Fatal(err)
	}

	keystream := make([]byte, 64)
	EncryptCTR(block, sessionSalt, keystream)

	if !checkHex(keystream[:48],
		"E03EAD0935C95E80E166B16DD92B4EB4"+
			"D23513162B02D0F72A43A2FE4A5F97AB"+
			"41E95B3BB0A2E8DD477901E4FCA894C0") {
		t.Errorf("incorrect keystream start: %02X", keystream[:48])
	}
}

func TestARIARoundTrip(t *testing.T) {
	for _, keyLen := range []int{16, 24, 32} {
		key := make([]byte, keyLen)
		for i := range key {
			key[i] = byte(i)
		}
		block, err := NewBlock(key, true)
		if err != nil {
			t.Fatalf("key len %d: %v", keyLen, err)
		}

		plaintext := []byte("0123456789ABCDEF")
		ciphertext := make([]byte, BlockSize)
		block.Encrypt(ciphertext, plaintext)

		decrypted := make([]byte, BlockSize)
		block.Decrypt(decrypted, ciphertext)

		if string(decrypted) != string(plaintext) {
			t.Errorf("key len %d: round trip mismatch: got %x want %x", keyLen, decrypted, plaintext)
		}
	}
}

func TestARIADistinctFromAES(t *testing.T) {
	key := make([]byte, 16)
	ariaBlock, err := NewBlock(key, true)
	if err != nil {
		t.Fatal(err)
	}
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}

	plaintext := make([]byte, BlockSize)
	ariaOut := make([]byte, BlockSize)
	aesOut := make([]byte, BlockSize)
	ariaBlock.Encrypt(ariaOut, plaintext)
	aesBlock.Encrypt(aesOut, plaintext)

	if string(ariaOut) == string(aesOut) {
		t.Error("ARIA and AES produced identical ciphertext for a zero key and block")
	}
}

func TestGCMRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i + 1)
	}
	block, err := NewBlock(key, false)
	if err != nil {
		t.Fatal(err)
	}
	aead, err := NewGCM(block, 16)
	if err != nil {
		t.Fatal(err)
	}

	nonce := make([]byte, 12)
	aad := []byte("header")
	plaintext := []byte("plaintext payload")

	sealed := aead.Seal(nil, nonce, plaintext, aad)
	if len(sealed) != len(plaintext)+aead.Overhead() {
		t.Fatalf("unexpected sealed length: %d", len(sealed))
	}

	opened, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		t.Fatal(err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("got %q want %q", opened, plaintext)
	}

	sealed[0] ^= 0xFF
	if _, err := aead.Open(nil, nonce, sealed, aad); err == nil {
		t.Error("expected authentication failure on tampered ciphertext")
	}
}

func TestDoubleAEADRoundTrip(t *testing.T) {
	innerKey := make([]byte, 16)
	outerKey := make([]byte, 16)
	for i := range outerKey {
		innerKey[i] = byte(i)
		outerKey[i] = byte(i + 100)
	}
	innerBlock, _ := NewBlock(innerKey, false)
	outerBlock, _ := NewBlock(outerKey, false)
	inner, err := NewGCM(innerBlock, 16)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := NewGCM(outerBlock, 16)
	if err != nil {
		t.Fatal(err)
	}

	d := &DoubleAEAD{Inner: inner, Outer: outer}
	header := []byte("rtp-header")
	plaintext := []byte("end to end media payload")
	innerNonce := make([]byte, 12)
	outerNonce := make([]byte, 12)
	outerNonce[0] = 1

	sealed := d.SealWithNonces(header, plaintext, innerNonce, outerNonce)
	body := sealed[len(header):]

	opened, err := d.OpenWithNonces(header, body, innerNonce, outerNonce)
	if err != nil {
		t.Fatal(err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("got %q want %q", opened, plaintext)
	}

	if d.Overhead() != inner.Overhead()+outer.Overhead() {
		t.Errorf("overhead mismatch: got %d", d.Overhead())
	}
}

func TestHMACAuthenticator(t *testing.T) {
	auth := NewHMACSHA1([]byte("authentication key material"), 10)

	m := []byte("a full SRTP packet worth of bytes")
	tag := auth.Tag(m)
	if len(tag) != 10 {
		t.Fatalf("expected 10-byte tag, got %d", len(tag))
	}
	if !auth.Verify(m, tag) {
		t.Error("authenticator rejected its own tag")
	}

	tampered := append([]byte(nil), m...)
	tampered[0] ^= 0xFF
	if auth.Verify(tampered, tag) {
		t.Error("authenticator accepted a tag for a different message")
	}
}

func TestZeroize(t *testing.T) {
	key := []byte{1, 2, 3, 4, 5}
	Zeroize(key)
	for i, b := range key {
		if b != 0 {
			t.Errorf("byte %d not zeroed: %x", i, b)
		}
	}
}
