package srtp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lanikai/dtlssrtp/internal/packet"
)

func repeat(b byte, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

// TestRoundTrip_AES128CM is scenario S1: AES128-CM/HMAC-SHA1-80 round trip.
func TestRoundTrip_AES128CM(t *testing.T) {
	profile, err := Profile(ProfileAES128CMHMACSHA1_80)
	require.NoError(t, err)

	masterKey := repeat(0x0B, 16)
	masterSalt := repeat(0x0E, 14)

	ctx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	hdr := rtpHeader{
		payloadType: 100,
		sequence:    0x1234,
		timestamp:   0xDEADBEEF,
		ssrc:        0xCAFEBABE,
	}
	payload := []byte("hello")

	w := packet.NewWriterSize(64)
	hdr.writeTo(w)
	require.NoError(t, w.WriteSlice(payload))

	require.NoError(t, ctx.ProtectRTP(w, &hdr, uint64(hdr.sequence)))
	require.Equal(t, 27, len(w.Bytes()))

	rx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	r := packet.NewReader(w.Bytes())
	var rxHdr rtpHeader
	require.NoError(t, rxHdr.readFrom(r))

	out, err := rx.UnprotectRTP(w.Bytes(), &rxHdr)
	require.NoError(t, err)
	require.Equal(t, payload, out)

	require.True(t, rx.roc.initialized)
	require.EqualValues(t, 0x1234, rx.roc.sL)
	require.EqualValues(t, 0, rx.roc.roc)
}

// TestRoundTrip_AEADAES128GCM is scenario S2: AEAD_AES_128_GCM round trip,
// plus the wrong-salt authentication-failure check.
func TestRoundTrip_AEADAES128GCM(t *testing.T) {
	profile, err := Profile(ProfileAEADAES128GCM)
	require.NoError(t, err)

	masterKey := repeat(0x0B, 16)
	masterSalt := repeat(0x0E, 12)

	ctx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	hdr := rtpHeader{
		payloadType: 100,
		sequence:    0x1234,
		timestamp:   0xDEADBEEF,
		ssrc:        0xCAFEBABE,
	}
	payload := []byte("hello")

	w := packet.NewWriterSize(64)
	hdr.writeTo(w)
	require.NoError(t, w.WriteSlice(payload))

	require.NoError(t, ctx.ProtectRTP(w, &hdr, uint64(hdr.sequence)))
	require.Equal(t, 33, len(w.Bytes()))

	badSalt := append([]byte(nil), masterSalt...)
	badSalt[0] ^= 1
	rx, err := NewContext(profile, masterKey, badSalt, nil)
	require.NoError(t, err)

	r := packet.NewReader(w.Bytes())
	var rxHdr rtpHeader
	require.NoError(t, rxHdr.readFrom(r))

	_, err = rx.UnprotectRTP(w.Bytes(), &rxHdr)
	require.ErrorIs(t, err, ErrAuthFailed)
}

// TestSeqRollover is scenario S3.
func TestSeqRollover(t *testing.T) {
	profile, err := Profile(ProfileAES128CMHMACSHA1_80)
	require.NoError(t, err)

	masterKey := repeat(0x0B, 16)
	masterSalt := repeat(0x0E, 14)

	tx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)
	rx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	seqs := []uint16{0xFFFE, 0xFFFF, 0x0000, 0x0001}
	expectedIndices := []uint64{0xFFFE, 0xFFFF, 0x10000, 0x10001}

	for i, seq := range seqs {
		hdr := rtpHeader{payloadType: 100, sequence: seq, timestamp: 1, ssrc: 0xCAFEBABE}
		payload := []byte("x")

		w := packet.NewWriterSize(64)
		hdr.writeTo(w)
		require.NoError(t, w.WriteSlice(payload))

		index := computeIndex(uint32(expectedIndices[i]>>16), seq)
		require.NoError(t, tx.ProtectRTP(w, &hdr, index))

		r := packet.NewReader(w.Bytes())
		var rxHdr rtpHeader
		require.NoError(t, rxHdr.readFrom(r))

		gotIndex := rx.roc.guessIndex(rxHdr.sequence)
		require.Equal(t, expectedIndices[i], gotIndex, "packet %d", i)

		_, err := rx.UnprotectRTP(w.Bytes(), &rxHdr)
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, rx.roc.roc)
}

func computeIndex(roc uint32, seq uint16) uint64 {
	return uint64(roc)<<16 | uint64(seq)
}

// TestReplayRejection is scenario S4.
func TestReplayRejection(t *testing.T) {
	profile, err := Profile(ProfileAES128CMHMACSHA1_80)
	require.NoError(t, err)

	masterKey := repeat(0x0B, 16)
	masterSalt := repeat(0x0E, 14)

	tx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)
	rx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	hdr := rtpHeader{payloadType: 100, sequence: 100, timestamp: 1, ssrc: 0xCAFEBABE}
	w := packet.NewWriterSize(64)
	hdr.writeTo(w)
	require.NoError(t, w.WriteSlice([]byte("x")))
	require.NoError(t, tx.ProtectRTP(w, &hdr, 100))

	buf := append([]byte(nil), w.Bytes()...)

	r := packet.NewReader(buf)
	var rxHdr rtpHeader
	require.NoError(t, rxHdr.readFrom(r))
	_, err = rx.UnprotectRTP(buf, &rxHdr)
	require.NoError(t, err)

	r2 := packet.NewReader(buf)
	var rxHdr2 rtpHeader
	require.NoError(t, rxHdr2.readFrom(r2))
	_, err = rx.UnprotectRTP(buf, &rxHdr2)
	require.ErrorIs(t, err, ErrReplay)

	require.EqualValues(t, 100, rx.roc.sL)
}

// TestDoubleAEADRoundTrip is scenario S5's round-trip half (the byte-layout
// half of S5 lives in dtlsext, which owns exported-secret splitting).
func TestDoubleAEADRoundTrip(t *testing.T) {
	profile, err := Profile(ProfileDoubleAEADAES128GCM)
	require.NoError(t, err)

	masterKey := append(repeat(0x01, 16), repeat(0x02, 16)...)
	masterSalt := append(repeat(0x03, 12), repeat(0x04, 12)...)

	tx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)
	rx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	hdr := rtpHeader{payloadType: 100, sequence: 1, timestamp: 1, ssrc: 0xCAFEBABE}
	payload := repeat(0x41, 20)

	w := packet.NewWriterSize(128)
	hdr.writeTo(w)
	require.NoError(t, w.WriteSlice(payload))

	require.NoError(t, tx.ProtectRTP(w, &hdr, 1))
	require.Equal(t, 12+20+16+16, len(w.Bytes()))

	r := packet.NewReader(w.Bytes())
	var rxHdr rtpHeader
	require.NoError(t, rxHdr.readFrom(r))

	out, err := rx.UnprotectRTP(w.Bytes(), &rxHdr)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

// TestHeaderExtensionBytesAreAuthenticatedNotEncrypted covers SPEC_FULL.md
// §4.7's requirement that a header extension (RFC 3550 §5.3.1) counts
// toward the authenticated header region, not the encrypted payload: a
// packet whose extension content happens to equal the AES-CM keystream's
// first bytes would round-trip wrong if protect ever encrypted it as
// payload.
func TestHeaderExtensionBytesAreAuthenticatedNotEncrypted(t *testing.T) {
	profile, err := Profile(ProfileAES128CMHMACSHA1_80)
	require.NoError(t, err)

	masterKey := repeat(0x0B, 16)
	masterSalt := repeat(0x0E, 14)

	tx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)
	rx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	hdr := rtpHeader{
		payloadType: 100,
		sequence:    1,
		timestamp:   1,
		ssrc:        0xCAFEBABE,
		extension:   true,
		extProfile:  0xBEDE,
		extData:     []byte{0xAA, 0xBB, 0xCC, 0xDD},
	}
	require.Equal(t, rtpHeaderSize+4+len(hdr.extData), hdr.length())
	payload := []byte("hello")

	w := packet.NewWriterSize(64)
	hdr.writeTo(w)
	require.NoError(t, w.WriteSlice(payload))

	require.NoError(t, tx.ProtectRTP(w, &hdr, 1))

	r := packet.NewReader(w.Bytes())
	var rxHdr rtpHeader
	require.NoError(t, rxHdr.readFrom(r))
	require.Equal(t, hdr.extData, rxHdr.extData)
	require.Equal(t, hdr.length(), rxHdr.length())

	out, err := rx.UnprotectRTP(w.Bytes(), &rxHdr)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestRTCPRoundTrip(t *testing.T) {
	profile, err := Profile(ProfileAES128CMHMACSHA1_80)
	require.NoError(t, err)

	masterKey := repeat(0x0B, 16)
	masterSalt := repeat(0x0E, 14)

	tx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)
	rx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	hdr := rtcpHeader{packetType: 200, length: 30, ssrc: 0xCAFEBABE}
	payload := []byte("report data here")

	w := packet.NewWriterSize(128)
	hdr.writeTo(w)
	require.NoError(t, w.WriteSlice(payload))

	require.NoError(t, tx.ProtectRTCP(w, hdr.ssrc))

	out, index, err := rx.UnprotectRTCP(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, payload, out)
	require.EqualValues(t, 0, index)
}

// TestRTCPReplayIsStrictlyMonotonic covers SPEC_FULL.md §4.8: SRTCP replay
// protection must reject any index that isn't strictly greater than the
// last one received, unlike RTP's sliding window, which tolerates
// reordering within its width.
func TestRTCPReplayIsStrictlyMonotonic(t *testing.T) {
	profile, err := Profile(ProfileAES128CMHMACSHA1_80)
	require.NoError(t, err)

	masterKey := repeat(0x0B, 16)
	masterSalt := repeat(0x0E, 14)

	tx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)
	rx, err := NewContext(profile, masterKey, masterSalt, nil)
	require.NoError(t, err)

	buildPacket := func() []byte {
		hdr := rtcpHeader{packetType: 200, length: 30, ssrc: 0xCAFEBABE}
		w := packet.NewWriterSize(128)
		hdr.writeTo(w)
		require.NoError(t, w.WriteSlice([]byte("report")))
		require.NoError(t, tx.ProtectRTCP(w, hdr.ssrc))
		return append([]byte(nil), w.Bytes()...)
	}

	pkt0 := buildPacket() // index 0
	pkt1 := buildPacket() // index 1

	_, index, err := rx.UnprotectRTCP(pkt1)
	require.NoError(t, err)
	require.EqualValues(t, 1, index)

	_, _, err = rx.UnprotectRTCP(pkt0)
	require.ErrorIs(t, err, ErrReplay, "an index at or below the last one received must always be rejected")
}
