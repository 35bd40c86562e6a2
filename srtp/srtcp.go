package srtp

import (
	intcipher "github.com/lanikai/dtlssrtp/internal/cipher"
	"github.com/lanikai/dtlssrtp/internal/packet"
)

// eFlagMask marks the high bit of the 32-bit SRTCP index field to indicate
// the packet is enciphered (RFC 3711 §3.4, as amended by RFC 5506 §3.4.3's
// reduced-size RTCP framing). Grounded on internal/rtp/srtp.go's eFlagMask.
const eFlagMask = 1 << 31

// ProtectRTCP encrypts and authenticates a single RTCP packet (reduced-size
// or compound) in place. p must contain the serialized plaintext RTCP
// packet; everything after the fixed 8-byte header (4-byte common header +
// SSRC) is treated as the protected portion, per RFC 5506 §3.4.3.
//
// Grounded on internal/rtp/srtp.go's cryptoContext.encryptAndSignRTCP.
func (c *Context) ProtectRTCP(p *packet.Writer, ssrc uint32) error {
	index := c.rtcpIndex
	if index >= 1<<31 {
		return ErrIndexExhausted
	}
	c.rtcpIndex++

	keys, err := c.keysForIndex(index)
	if err != nil {
		return err
	}

	header := p.Bytes()[:rtcpHeaderSize]
	payload := p.Bytes()[rtcpHeaderSize:]

	switch {
	case c.profile.isAEAD() && c.profile.Double:
		if err := c.protectRTCPDouble(p, header, payload, keys, ssrc, index); err != nil {
			return err
		}
	case c.profile.isAEAD():
		if err := c.protectRTCPAEAD(p, header, payload, keys, ssrc, index); err != nil {
			return err
		}
	default:
		if !c.profile.isNULL() {
			block, err := intcipher.NewBlock(keys.srtcpEncrypt, c.profile.isARIA())
			if err != nil {
				return err
			}
			iv := buildCTRIV(keys.srtcpSalt, ssrc, index)
			intcipher.EncryptCTR(block, iv, payload)
		}
		var eFlag uint32 = eFlagMask
		if c.profile.isNULL() {
			eFlag = 0 // authenticated but not enciphered
		}
		p.WriteUint32(eFlag | uint32(index))
		auth := intcipher.NewHMACSHA1(keys.srtcpAuth, c.profile.AuthTagBits/8)
		tag := auth.Tag(p.Bytes())
		if err := p.WriteSlice(tag); err != nil {
			return err
		}
	}

	if len(c.mki) > 0 {
		if err := p.WriteSlice(c.mki); err != nil {
			return err
		}
	}

	c.Stats.PacketsProtected++
	c.Stats.BytesProtected += uint64(len(payload))
	return nil
}

func (c *Context) protectRTCPAEAD(p *packet.Writer, header, payload []byte, keys *sessionKeys, ssrc uint32, index uint64) error {
	aead, err := c.aeadFor(keys.srtcpEncrypt)
	if err != nil {
		return err
	}
	// The E-flag and index are bound into the nonce and AAD, and are also
	// written in the clear after the ciphertext (RFC 7714 §9.1).
	indexAndFlag := append(append([]byte(nil), header...), encodeIndex(index)...)
	nonce := buildAEADNonce(keys.srtcpSalt, ssrc, index)
	sealed := aead.Seal(nil, nonce, payload, indexAndFlag)
	p.Rewind(len(payload))
	if err := p.WriteSlice(sealed); err != nil {
		return err
	}
	p.WriteUint32(eFlagMask | uint32(index))
	return nil
}

func (c *Context) protectRTCPDouble(p *packet.Writer, header, payload []byte, keys *sessionKeys, ssrc uint32, index uint64) error {
	d, err := c.doubleAEADFor(keys.srtcpEncrypt)
	if err != nil {
		return err
	}
	indexAndFlag := append(append([]byte(nil), header...), encodeIndex(index)...)
	innerSalt, outerSalt := splitHalf(keys.srtcpSalt)
	innerNonce := buildAEADNonce(innerSalt, ssrc, index)
	outerNonce := buildAEADNonce(outerSalt, ssrc, index)
	sealed := d.SealWithNonces(indexAndFlag, payload, innerNonce, outerNonce)
	p.Rewind(len(payload))
	if err := p.WriteSlice(sealed[len(indexAndFlag):]); err != nil {
		return err
	}
	p.WriteUint32(eFlagMask | uint32(index))
	return nil
}

func encodeIndex(index uint64) []byte {
	v := eFlagMask | uint32(index)
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// UnprotectRTCP verifies and decrypts an inbound SRTCP packet, returning the
// plaintext RTCP payload (the bytes after the fixed 8-byte header through
// the end of the protected portion, excluding the trailing index/tag/MKI)
// and the 31-bit SRTCP index.
//
// Grounded on internal/rtp/srtp.go's cryptoContext.verifyAndDecryptRTCP,
// including its E-flag-clear fast path: per RFC 3711, a packet with the
// E-flag clear is authenticated but never enciphered, so decryption is
// skipped entirely.
func (c *Context) UnprotectRTCP(buf []byte) ([]byte, uint64, error) {
	body := buf
	if len(c.mki) > 0 {
		if len(body) < len(c.mki) {
			return nil, 0, ErrShortPacket
		}
		mki := body[len(body)-len(c.mki):]
		if !bytesEqual(mki, c.mki) {
			return nil, 0, ErrBadMKI
		}
		body = body[:len(body)-len(c.mki)]
	}

	if len(body) < rtcpHeaderSize {
		return nil, 0, ErrShortPacket
	}
	ssrc := be32(body[4:8])

	if c.profile.isAEAD() {
		return c.unprotectRTCPAEAD(body, ssrc)
	}

	tagLen := c.profile.AuthTagBits / 8
	tagStart := len(body) - tagLen
	indexStart := tagStart - 4
	if indexStart < rtcpHeaderSize {
		return nil, 0, ErrShortPacket
	}

	indexField := be32(body[indexStart:])
	index := uint64(indexField &^ eFlagMask)

	if err := c.rtcpReplay.check(index); err != nil {
		c.Stats.PacketsDropped++
		return nil, 0, err
	}

	keys, err := c.keysForIndex(index)
	if err != nil {
		return nil, 0, err
	}

	auth := intcipher.NewHMACSHA1(keys.srtcpAuth, tagLen)
	if !auth.Verify(body[:tagStart], body[tagStart:]) {
		c.Stats.PacketsDropped++
		return nil, 0, ErrAuthFailed
	}

	payload := append([]byte(nil), body[rtcpHeaderSize:indexStart]...)
	if indexField&eFlagMask != 0 {
		block, err := intcipher.NewBlock(keys.srtcpEncrypt, c.profile.isARIA())
		if err != nil {
			return nil, 0, err
		}
		iv := buildCTRIV(keys.srtcpSalt, ssrc, index)
		intcipher.EncryptCTR(block, iv, payload)
	}
	// E-flag clear: packet was never enciphered; return the authenticated
	// plaintext as-is.

	c.rtcpReplay.accept(index)
	c.Stats.PacketsUnprotected++
	c.Stats.BytesUnprotected += uint64(len(payload))
	return payload, index, nil
}

func (c *Context) unprotectRTCPAEAD(body []byte, ssrc uint32) ([]byte, uint64, error) {
	if len(body) < rtcpHeaderSize+4 {
		return nil, 0, ErrShortPacket
	}
	indexField := be32(body[len(body)-4:])
	index := uint64(indexField &^ eFlagMask)

	if err := c.rtcpReplay.check(index); err != nil {
		c.Stats.PacketsDropped++
		return nil, 0, err
	}

	keys, err := c.keysForIndex(index)
	if err != nil {
		return nil, 0, err
	}

	header := body[:rtcpHeaderSize]
	ciphertext := body[rtcpHeaderSize : len(body)-4]
	indexAndFlag := append(append([]byte(nil), header...), body[len(body)-4:]...)

	var plaintext []byte
	if c.profile.Double {
		d, err := c.doubleAEADFor(keys.srtcpEncrypt)
		if err != nil {
			return nil, 0, err
		}
		innerSalt, outerSalt := splitHalf(keys.srtcpSalt)
		innerNonce := buildAEADNonce(innerSalt, ssrc, index)
		outerNonce := buildAEADNonce(outerSalt, ssrc, index)
		plaintext, err = d.OpenWithNonces(indexAndFlag, ciphertext, innerNonce, outerNonce)
		if err != nil {
			c.Stats.PacketsDropped++
			return nil, 0, ErrAuthFailed
		}
	} else {
		aead, err := c.aeadFor(keys.srtcpEncrypt)
		if err != nil {
			return nil, 0, err
		}
		nonce := buildAEADNonce(keys.srtcpSalt, ssrc, index)
		plaintext, err = aead.Open(nil, nonce, ciphertext, indexAndFlag)
		if err != nil {
			c.Stats.PacketsDropped++
			return nil, 0, ErrAuthFailed
		}
	}

	c.rtcpReplay.accept(index)
	c.Stats.PacketsUnprotected++
	c.Stats.BytesUnprotected += uint64(len(plaintext))
	return plaintext, index, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
