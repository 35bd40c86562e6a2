package srtp

// buildCTRIV constructs the 128-bit AES-CM (or ARIA-CM) IV for an RTP or
// RTCP packet, per RFC 3711 §4.1.1:
//
//	IV = (salt * 2^16) XOR (SSRC * 2^64) XOR (index * 2^16)
//
// Pictorially (salt left-aligned into the first 14 bytes):
//
//	xxxxxxxxxxxxxx00  <- salt (112 bits)
//	0000xxxx00000000  <- SSRC (32 bits)
//	00000000xxxxxx00  <- index (48 bits for RTP, 31 bits for RTCP)
//
// Grounded on internal/rtp/srtp.go's aesCounterMode IV construction,
// generalized to take the salt length from the profile rather than
// assuming 112 bits, so the same function builds the AES-CM and ARIA-CM
// IVs for both RTP and RTCP. The f8 RTP IV is built by buildF8IV instead.
func buildCTRIV(salt []byte, ssrc uint32, index uint64) []byte {
	iv := make([]byte, 16)
	copy(iv, salt)
	xor32(iv[4:8], ssrc)
	xor48(iv[8:14], index)
	return iv
}

// buildF8IV constructs the per-packet IV fed to the f8 mode's one-time IV'
// derivation (RFC 3711 §4.1.2):
//
//	IV = 0x00 || M || PT || SEQ || TS || SSRC || ROC
//
// where M||PT is the second octet of the RTP header. Built directly from
// RFC 3711's f8 definition; no f8 implementation exists elsewhere in this
// codebase to ground against.
func buildF8IV(secondOctet byte, sequence uint16, timestamp, ssrc uint32, roc uint32) []byte {
	iv := make([]byte, 16)
	iv[1] = secondOctet
	iv[2] = byte(sequence >> 8)
	iv[3] = byte(sequence)
	iv[4] = byte(timestamp >> 24)
	iv[5] = byte(timestamp >> 16)
	iv[6] = byte(timestamp >> 8)
	iv[7] = byte(timestamp)
	iv[8] = byte(ssrc >> 24)
	iv[9] = byte(ssrc >> 16)
	iv[10] = byte(ssrc >> 8)
	iv[11] = byte(ssrc)
	iv[12] = byte(roc >> 24)
	iv[13] = byte(roc >> 16)
	iv[14] = byte(roc >> 8)
	iv[15] = byte(roc)
	return iv
}

// buildAEADNonce constructs the 96-bit AEAD nonce for AES-GCM/ARIA-GCM
// profiles, per RFC 7714 §8.1:
//
//	nonce = salt XOR (SSRC * 2^48) XOR index
//
// salt is 96 bits (12 bytes); SSRC occupies bytes 2-5 and the index (the
// 48-bit SRTP index or 31-bit SRTCP index, right-aligned) bytes 6-11.
// Built directly from RFC 7714.
func buildAEADNonce(salt []byte, ssrc uint32, index uint64) []byte {
	nonce := make([]byte, 12)
	copy(nonce, salt)
	xor32(nonce[2:6], ssrc)
	xor48(nonce[6:12], index)
	return nonce
}

func xor32(buf []byte, v uint32) {
	buf[0] ^= byte(v >> 24)
	buf[1] ^= byte(v >> 16)
	buf[2] ^= byte(v >> 8)
	buf[3] ^= byte(v)
}

func xor48(buf []byte, v uint64) {
	buf[0] ^= byte(v >> 40)
	buf[1] ^= byte(v >> 32)
	buf[2] ^= byte(v >> 24)
	buf[3] ^= byte(v >> 16)
	buf[4] ^= byte(v >> 8)
	buf[5] ^= byte(v)
}
