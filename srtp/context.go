package srtp

import (
	"golang.org/x/xerrors"

	intcipher "github.com/lanikai/dtlssrtp/internal/cipher"
	"github.com/lanikai/dtlssrtp/internal/logging"
	"github.com/lanikai/dtlssrtp/internal/packet"
)

var log = logging.DefaultLogger.WithTag("srtp")

// Stats counts packets and bytes processed by a Context, split by
// direction and outcome. Exposed for callers that want visibility into
// drops without threading their own counters through every call site;
// replay, too-old and authentication drops all count in PacketsDropped
// and are not broken down by reason.
type Stats struct {
	PacketsProtected   uint64
	PacketsUnprotected uint64
	PacketsDropped     uint64
	BytesProtected     uint64
	BytesUnprotected   uint64
}

// Context is a one-directional, single-SSRC SRTP/SRTCP cryptographic
// context: the master key material for one profile, plus all mutable
// per-packet state (rollover counter, replay window, cached session keys).
// A Context carries no lock: it must be used by exactly one goroutine at a
// time.
//
// Grounded on internal/rtp/srtp.go's cryptoContext, expanded from "six
// derived keys, two closures" into a stateful type that also owns ROC
// tracking, replay detection, and key-generation caching, none of which
// cryptoContext itself carries (there, rtpReader/rtpWriter own that state
// instead; here it moves onto Context because a Context, unlike
// cryptoContext, is the caller-facing unit of rekeying).
type Context struct {
	profile    ProtectionProfile
	masterKey  []byte
	masterSalt []byte
	mki        []byte

	ssrc    uint32
	hasSSRC bool

	roc    rocState
	replay replayWindow

	rtcpIndex  uint64
	rtcpReplay monotonicReplay

	keys *sessionKeys

	Stats Stats
}

// NewContext builds a Context bound to a single protection profile and
// master keying material. mki may be nil.
func NewContext(profile ProtectionProfile, masterKey, masterSalt, mki []byte) (*Context, error) {
	c := &Context{
		profile:    profile,
		masterKey:  append([]byte(nil), masterKey...),
		masterSalt: append([]byte(nil), masterSalt...),
		mki:        append([]byte(nil), mki...),
	}

	keys, err := c.deriveGeneration(0)
	if err != nil {
		return nil, err
	}
	c.keys = keys
	return c, nil
}

// MKI returns the MKI this context is keyed for, or nil if none.
func (c *Context) MKI() []byte {
	return c.mki
}

func (c *Context) deriveGeneration(r uint64) (*sessionKeys, error) {
	keyBits, saltBits := c.profile.KeyBits, c.profile.SaltBits

	if !c.profile.Double {
		return deriveSessionKeys(c.masterKey, c.masterSalt, r, keyBits, saltBits, c.profile.AuthTagBits, c.profile.isARIA())
	}

	// Double AEAD (RFC 8723): the master key/salt are inner||outer, and
	// each layer runs the ordinary RFC 3711 §4.3 KDF independently against
	// its own half. The combined sessionKeys fields below are themselves
	// inner||outer, split back apart by doubleAEADFor and splitHalf.
	half := keyBits / 8
	saltHalf := saltBits / 8
	if len(c.masterKey) < 2*half || len(c.masterSalt) < 2*saltHalf {
		return nil, xerrors.New("srtp: master key/salt too short for double AEAD profile")
	}

	inner, err := deriveSessionKeys(c.masterKey[:half], c.masterSalt[:saltHalf], r, keyBits, saltBits, c.profile.AuthTagBits, false)
	if err != nil {
		return nil, err
	}
	outer, err := deriveSessionKeys(c.masterKey[half:2*half], c.masterSalt[saltHalf:2*saltHalf], r, keyBits, saltBits, c.profile.AuthTagBits, false)
	if err != nil {
		return nil, err
	}

	return &sessionKeys{
		srtpEncrypt:  concat(inner.srtpEncrypt, outer.srtpEncrypt),
		srtpSalt:     concat(inner.srtpSalt, outer.srtpSalt),
		srtcpEncrypt: concat(inner.srtcpEncrypt, outer.srtcpEncrypt),
		srtcpSalt:    concat(inner.srtcpSalt, outer.srtcpSalt),
		generation:   r,
	}, nil
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// keysForIndex returns the session keys valid for index, re-deriving them
// if the key-derivation-rate generation has changed.
func (c *Context) keysForIndex(index uint64) (*sessionKeys, error) {
	r := uint64(0)
	if c.profile.KDR > 0 {
		r = index / c.profile.KDR
	}
	if c.keys != nil && c.keys.generation == r {
		return c.keys, nil
	}
	log.Debug("srtp: re-deriving session keys for generation %d", r)
	keys, err := c.deriveGeneration(r)
	if err != nil {
		return nil, err
	}
	c.keys = keys
	return keys, nil
}

// ProtectRTP encrypts and authenticates a single RTP packet in place,
// writing the result (header || ciphertext || tag, plus MKI if configured)
// to p. p must already contain the serialized, plaintext RTP packet at
// offset 0; payload begins at hdr.length().
//
// Grounded on internal/rtp/srtp.go's cryptoContext.encryptAndSignRTP,
// generalized to dispatch across cipher families instead of hardcoding
// AES-CM + HMAC-SHA1.
func (c *Context) ProtectRTP(p *packet.Writer, hdr *rtpHeader, index uint64) error {
	if index >= 1<<48 {
		return ErrIndexExhausted
	}

	keys, err := c.keysForIndex(index)
	if err != nil {
		return err
	}

	payloadStart := hdr.length()
	header := p.Bytes()[:payloadStart]
	payload := p.Bytes()[payloadStart:]

	switch {
	case c.profile.isAEAD() && c.profile.Double:
		if err := c.protectRTPDouble(p, header, payload, keys, hdr.ssrc, index); err != nil {
			return err
		}
	case c.profile.isAEAD():
		if err := c.protectRTPAEAD(p, header, payload, keys, hdr.ssrc, index); err != nil {
			return err
		}
	default:
		c.protectRTPCMOrF8(hdr, payload, keys, index)
		if err := c.signRTP(p, keys, index); err != nil {
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

func (c *Context) protectRTPCMOrF8(hdr *rtpHeader, payload []byte, keys *sessionKeys, index uint64) {
	if c.profile.isNULL() {
		return
	}
	block, err := intcipher.NewBlock(keys.srtpEncrypt, c.profile.isARIA())
	if err != nil {
		panic(err) // key length is fixed by the profile and already validated
	}
	if c.profile.isF8() {
		ivKeyCipher, err := intcipher.NewBlock(intcipher.DeriveF8IVKey(keys.srtpEncrypt, keys.srtpSalt), false)
		if err != nil {
			panic(err)
		}
		second := encodeSecondOctet(hdr)
		iv := buildF8IV(second, hdr.sequence, hdr.timestamp, hdr.ssrc, uint32(index>>16))
		intcipher.NewF8Stream(block, ivKeyCipher, iv).XORKeyStream(payload, payload)
		return
	}
	iv := buildCTRIV(keys.srtpSalt, hdr.ssrc, index)
	intcipher.EncryptCTR(block, iv, payload)
}

func encodeSecondOctet(hdr *rtpHeader) byte {
	var b byte = hdr.payloadType & 0x7f
	if hdr.marker {
		b |= 1 << 7
	}
	return b
}

func (c *Context) signRTP(p *packet.Writer, keys *sessionKeys, index uint64) error {
	p.WriteUint32(uint32(index >> 16)) // ROC appended to the authenticated portion
	auth := intcipher.NewHMACSHA1(keys.srtpAuth, c.profile.AuthTagBits/8)
	tag := auth.Tag(p.Bytes())
	p.Rewind(4)
	return p.WriteSlice(tag)
}

func (c *Context) protectRTPAEAD(p *packet.Writer, header, payload []byte, keys *sessionKeys, ssrc uint32, index uint64) error {
	aead, err := c.aeadFor(keys.srtpEncrypt)
	if err != nil {
		return err
	}
	nonce := buildAEADNonce(keys.srtpSalt, ssrc, index)
	sealed := aead.Seal(nil, nonce, payload, header)
	p.Rewind(len(payload))
	return p.WriteSlice(sealed)
}

func (c *Context) protectRTPDouble(p *packet.Writer, header, payload []byte, keys *sessionKeys, ssrc uint32, index uint64) error {
	d, err := c.doubleAEADFor(keys.srtpEncrypt)
	if err != nil {
		return err
	}
	innerSalt, outerSalt := splitHalf(keys.srtpSalt)
	innerNonce := buildAEADNonce(innerSalt, ssrc, index)
	outerNonce := buildAEADNonce(outerSalt, ssrc, index)
	sealed := d.SealWithNonces(header, payload, innerNonce, outerNonce)
	p.Rewind(len(payload))
	return p.WriteSlice(sealed[len(header):])
}

func splitHalf(b []byte) (first, second []byte) {
	half := len(b) / 2
	return b[:half], b[half:]
}

// UnprotectRTP verifies and decrypts an inbound SRTP packet. buf is the
// full wire packet (header, ciphertext, tag, optional MKI); hdr must
// already be parsed from it. Returns the plaintext payload.
func (c *Context) UnprotectRTP(buf []byte, hdr *rtpHeader) ([]byte, error) {
	body := buf
	if len(c.mki) > 0 {
		if len(body) < len(c.mki) {
			return nil, ErrShortPacket
		}
		mki := body[len(body)-len(c.mki):]
		if !bytesEqual(mki, c.mki) {
			log.Debug("srtp: MKI mismatch on SSRC %#x", hdr.ssrc)
			return nil, ErrBadMKI
		}
		body = body[:len(body)-len(c.mki)]
	}

	index := c.roc.guessIndex(hdr.sequence)
	if c.roc.initialized && index>>16 != uint64(c.roc.roc) {
		log.Debug("srtp: rollover counter advanced from %d to %d on SSRC %#x", c.roc.roc, index>>16, hdr.ssrc)
	}
	if err := c.replay.check(index); err != nil {
		log.Debug("srtp: dropping packet at index %d on SSRC %#x: %v", index, hdr.ssrc, err)
		c.Stats.PacketsDropped++
		return nil, err
	}

	keys, err := c.keysForIndex(index)
	if err != nil {
		return nil, err
	}

	payloadStart := hdr.length()
	if len(body) < payloadStart {
		return nil, ErrShortPacket
	}
	header := body[:payloadStart]

	var payload []byte
	switch {
	case c.profile.isAEAD() && c.profile.Double:
		payload, err = c.unprotectRTPDouble(header, body[payloadStart:], keys, hdr.ssrc, index)
	case c.profile.isAEAD():
		payload, err = c.unprotectRTPAEAD(header, body[payloadStart:], keys, hdr.ssrc, index)
	default:
		payload, err = c.unprotectRTPCMOrF8(body, hdr, keys, index)
	}
	if err != nil {
		c.Stats.PacketsDropped++
		return nil, err
	}

	if !c.hasSSRC {
		c.ssrc = hdr.ssrc
		c.hasSSRC = true
	}
	c.roc.commit(hdr.sequence, index)
	c.replay.accept(index)
	c.Stats.PacketsUnprotected++
	c.Stats.BytesUnprotected += uint64(len(payload))
	return payload, nil
}

func (c *Context) unprotectRTPCMOrF8(buf []byte, hdr *rtpHeader, keys *sessionKeys, index uint64) ([]byte, error) {
	tagLen := c.profile.AuthTagBits / 8
	tagStart := len(buf) - tagLen
	if tagStart < 0 {
		return nil, ErrShortPacket
	}

	auth := intcipher.NewHMACSHA1(keys.srtpAuth, tagLen)

	m := append([]byte(nil), buf[:tagStart]...)
	m = append(m, 0, 0, 0, 0)
	m[len(m)-4] = byte(index >> 40)
	m[len(m)-3] = byte(index >> 32)
	m[len(m)-2] = byte(index >> 24)
	m[len(m)-1] = byte(index >> 16)

	if !auth.Verify(m, buf[tagStart:]) {
		return nil, ErrAuthFailed
	}

	payloadStart := hdr.length()
	payload := append([]byte(nil), buf[payloadStart:tagStart]...)

	if !c.profile.isNULL() {
		block, err := intcipher.NewBlock(keys.srtpEncrypt, c.profile.isARIA())
		if err != nil {
			return nil, err
		}
		if c.profile.isF8() {
			ivKeyCipher, err := intcipher.NewBlock(intcipher.DeriveF8IVKey(keys.srtpEncrypt, keys.srtpSalt), false)
			if err != nil {
				return nil, err
			}
			second := encodeSecondOctet(hdr)
			iv := buildF8IV(second, hdr.sequence, hdr.timestamp, hdr.ssrc, uint32(index>>16))
			intcipher.NewF8Stream(block, ivKeyCipher, iv).XORKeyStream(payload, payload)
		} else {
			iv := buildCTRIV(keys.srtpSalt, hdr.ssrc, index)
			intcipher.EncryptCTR(block, iv, payload)
		}
	}

	return payload, nil
}

func (c *Context) unprotectRTPAEAD(header, ciphertext []byte, keys *sessionKeys, ssrc uint32, index uint64) ([]byte, error) {
	aead, err := c.aeadFor(keys.srtpEncrypt)
	if err != nil {
		return nil, err
	}
	nonce := buildAEADNonce(keys.srtpSalt, ssrc, index)
	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func (c *Context) unprotectRTPDouble(header, body []byte, keys *sessionKeys, ssrc uint32, index uint64) ([]byte, error) {
	d, err := c.doubleAEADFor(keys.srtpEncrypt)
	if err != nil {
		return nil, err
	}
	innerSalt, outerSalt := splitHalf(keys.srtpSalt)
	innerNonce := buildAEADNonce(innerSalt, ssrc, index)
	outerNonce := buildAEADNonce(outerSalt, ssrc, index)
	plaintext, err := d.OpenWithNonces(header, body, innerNonce, outerNonce)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func (c *Context) aeadFor(key []byte) (intcipher.AEAD, error) {
	block, err := intcipher.NewBlock(key, c.profile.isARIA())
	if err != nil {
		return nil, err
	}
	return intcipher.NewGCM(block, c.profile.AuthTagBits/8)
}

func (c *Context) doubleAEADFor(key []byte) (*intcipher.DoubleAEAD, error) {
	half := len(key) / 2
	innerBlock, err := intcipher.NewBlock(key[:half], c.profile.isARIA())
	if err != nil {
		return nil, err
	}
	outerBlock, err := intcipher.NewBlock(key[half:], c.profile.isARIA())
	if err != nil {
		return nil, err
	}
	inner, err := intcipher.NewGCM(innerBlock, c.profile.AuthTagBits/8)
	if err != nil {
		return nil, err
	}
	outer, err := intcipher.NewGCM(outerBlock, c.profile.AuthTagBits/8)
	if err != nil {
		return nil, err
	}
	return &intcipher.DoubleAEAD{Inner: inner, Outer: outer}, nil
}

// Rekey replaces the context's master key material in place, resetting the
// cached session-key generation but preserving ROC/replay state (a peer
// rekeying mid-stream does not reset sequence numbers), the mechanism
// implementations use to act on an MKI rollover (RFC 3711 §3.2) without
// rebuilding the whole Context.
func (c *Context) Rekey(masterKey, masterSalt, mki []byte) error {
	intcipher.Zeroize(c.masterKey)
	c.masterKey = append([]byte(nil), masterKey...)
	c.masterSalt = append([]byte(nil), masterSalt...)
	c.mki = append([]byte(nil), mki...)

	keys, err := c.deriveGeneration(0)
	if err != nil {
		return err
	}
	c.keys = keys
	return nil
}

// Destroy zeroizes the context's key material. The context must not be
// used afterward.
func (c *Context) Destroy() {
	intcipher.Zeroize(c.masterKey)
	if c.keys != nil {
		intcipher.Zeroize(c.keys.srtpEncrypt)
		intcipher.Zeroize(c.keys.srtpAuth)
		intcipher.Zeroize(c.keys.srtcpEncrypt)
		intcipher.Zeroize(c.keys.srtcpAuth)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
