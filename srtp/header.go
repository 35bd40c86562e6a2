package srtp

import (
	"golang.org/x/xerrors"

	"github.com/lanikai/dtlssrtp/internal/packet"
)

const rtpVersion = 2

// rtpHeader is the fixed 12-byte RTP header plus optional CSRC list and
// header extension, as defined in RFC 3550 §5.1/§5.3.1. Grounded on
// internal/rtp/rtp.go's rtpHeader, trimmed to the fields protect/unprotect
// actually need (the padding bit is read through, not interpreted: the
// packet framing it introduces is an RTP-session concern, out of scope
// here; the extension, by contrast, has to be parsed, since it shifts
// where the ciphertext and MAC/AEAD-covered region begin).
type rtpHeader struct {
	padding     bool
	extension   bool
	marker      bool
	payloadType byte
	sequence    uint16
	timestamp   uint32
	ssrc        uint32
	csrc        []uint32

	// extProfile/extData hold the RFC 3550 §5.3.1 header extension verbatim
	// (profile identifier and the extension words that follow it) when
	// extension is set. They are opaque to protect/unprotect beyond their
	// length: the extension is part of the authenticated header region and,
	// for AES-CM/F8 profiles, is never encrypted, so it only needs to be
	// carried through length() and writeTo, not interpreted.
	extProfile uint16
	extData    []byte
}

const rtpHeaderSize = 12

// length returns the size, in bytes, of the full RTP header as it must be
// treated for MAC/AEAD purposes: the fixed header, the CSRC list, and —
// when present — the header extension (profile + length fields plus the
// extension words they declare). Encryption and the ciphertext/AAD split
// both start at the byte immediately following this.
func (h *rtpHeader) length() int {
	n := rtpHeaderSize + 4*len(h.csrc)
	if h.extension {
		n += 4 + len(h.extData)
	}
	return n
}

func (h *rtpHeader) readFrom(r *packet.Reader) error {
	if err := r.CheckRemaining(rtpHeaderSize); err != nil {
		return xerrors.Errorf("short RTP header: %w", err)
	}

	first := r.ReadByte()
	version := first >> 6
	if version != rtpVersion {
		return xerrors.Errorf("unsupported RTP version %d", version)
	}
	h.padding = (first>>5)&0x01 == 1
	h.extension = (first>>4)&0x01 == 1
	csrcCount := first & 0x0f

	if err := r.CheckRemaining(8 + 4*int(csrcCount)); err != nil {
		return xerrors.Errorf("short RTP header: %w", err)
	}

	second := r.ReadByte()
	h.marker = second>>7 == 1
	h.payloadType = second & 0x7f
	h.sequence = r.ReadUint16()
	h.timestamp = r.ReadUint32()
	h.ssrc = r.ReadUint32()

	h.csrc = h.csrc[:0]
	for i := 0; i < int(csrcCount); i++ {
		h.csrc = append(h.csrc, r.ReadUint32())
	}

	h.extProfile = 0
	h.extData = nil
	if h.extension {
		if err := r.CheckRemaining(4); err != nil {
			return xerrors.Errorf("short RTP header extension: %w", err)
		}
		h.extProfile = r.ReadUint16()
		extLen := int(r.ReadUint16()) // count of 32-bit words, RFC 3550 §5.3.1
		if err := r.CheckRemaining(4 * extLen); err != nil {
			return xerrors.Errorf("short RTP header extension: %w", err)
		}
		h.extData = r.ReadSlice(4 * extLen)
	}
	return nil
}

func (h *rtpHeader) writeTo(w *packet.Writer) {
	var first byte = rtpVersion << 6
	if h.padding {
		first |= 1 << 5
	}
	if h.extension {
		first |= 1 << 4
	}
	first |= byte(len(h.csrc)) & 0x0f
	w.WriteByte(first)

	var second byte = h.payloadType & 0x7f
	if h.marker {
		second |= 1 << 7
	}
	w.WriteByte(second)

	w.WriteUint16(h.sequence)
	w.WriteUint32(h.timestamp)
	w.WriteUint32(h.ssrc)
	for _, csrc := range h.csrc {
		w.WriteUint32(csrc)
	}
	if h.extension {
		w.WriteUint16(h.extProfile)
		w.WriteUint16(uint16(len(h.extData) / 4))
		w.WriteSlice(h.extData)
	}
}

// rtcpHeader is the common 4-byte prefix shared by every RTCP packet type
// (RFC 3550 §6.1), plus the SSRC of the first compound block, which SRTCP
// authentication always covers regardless of packet type. Grounded on
// internal/rtp/rtcp.go's rtcpHeader.
type rtcpHeader struct {
	padding    bool
	count      byte
	packetType byte
	length     uint16
	ssrc       uint32
}

const rtcpHeaderSize = 8 // 4-byte common header + 4-byte SSRC

func (h *rtcpHeader) readFrom(r *packet.Reader) error {
	if err := r.CheckRemaining(rtcpHeaderSize); err != nil {
		return xerrors.Errorf("short RTCP header: %w", err)
	}

	first := r.ReadByte()
	version := first >> 6
	if version != rtpVersion {
		return xerrors.Errorf("unsupported RTCP version %d", version)
	}
	h.padding = (first>>5)&0x01 == 1
	h.count = first & 0x1f
	h.packetType = r.ReadByte()
	h.length = r.ReadUint16()
	h.ssrc = r.ReadUint32()
	return nil
}

func (h *rtcpHeader) writeTo(w *packet.Writer) {
	var first byte = rtpVersion << 6
	if h.padding {
		first |= 1 << 5
	}
	first |= h.count & 0x1f
	w.WriteByte(first)
	w.WriteByte(h.packetType)
	w.WriteUint16(h.length)
	w.WriteUint32(h.ssrc)
}
