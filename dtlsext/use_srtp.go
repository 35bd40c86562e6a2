// Package dtlsext implements the DTLS use_srtp extension (RFC 5764 §4.1.1)
// and the derivation of SRTP/SRTCP keying material from a completed DTLS
// handshake's exported keying material (RFC 5764 §4.2).
package dtlsext

import (
	"io"

	"github.com/lanikai/dtlssrtp/internal/packet"
	"github.com/lanikai/dtlssrtp/srtp"
)

// maxMKILen bounds the MKI length field read off the wire so a hostile peer
// can't make ParseClientExtension/ParseServerExtension allocate or index
// past a sane limit before CheckRemaining catches a truncated packet.
const maxMKILen = 255

// UseSRTPData is the parsed contents of a use_srtp extension: the ordered
// list of protection profiles offered or selected, and an optional MKI.
//
// Wire format, matching dtls.go's useSRTP/extension.marshal():
//
//	uint16        srtp_protection_profiles length (bytes, always even)
//	uint16[]      srtp_protection_profiles
//	uint8         mki length
//	opaque        mki
type UseSRTPData struct {
	Profiles []srtp.ProfileID
	MKI      []byte
}

// BuildClientExtension serializes a ClientHello's use_srtp extension body
// offering profiles in preference order, with the client's own MKI (nil for
// no MKI).
func BuildClientExtension(profiles []srtp.ProfileID, mki []byte) ([]byte, error) {
	return marshalUseSRTP(profiles, mki)
}

// BuildServerExtension serializes a ServerHello's use_srtp extension body.
// Per RFC 5764 §4.1.1 the server echoes exactly one selected profile.
func BuildServerExtension(selected srtp.ProfileID, mki []byte) ([]byte, error) {
	return marshalUseSRTP([]srtp.ProfileID{selected}, mki)
}

// BuildClientExtensionWithPolicy is BuildClientExtension, except when mki is
// nil and policy.MaxGeneratedMKILen > 0, in which case it generates a fresh
// MKI of that length from rnd (ordinarily crypto/rand.Reader) before
// marshaling, per Policy.MaxGeneratedMKILen's documented purpose. Returns
// the extension body and the MKI actually used (nil if none), so the
// caller can remember it for the matching ParseServerExtension call.
func BuildClientExtensionWithPolicy(profiles []srtp.ProfileID, mki []byte, rnd RandomSource, policy Policy) ([]byte, []byte, error) {
	if mki == nil {
		generated, err := GenerateMKI(rnd, policy)
		if err != nil {
			return nil, nil, err
		}
		mki = generated
	}
	body, err := marshalUseSRTP(profiles, mki)
	if err != nil {
		return nil, nil, err
	}
	return body, mki, nil
}

// RandomSource supplies randomness for MKI generation; crypto/rand.Reader
// satisfies it directly. It exists as its own interface, rather than
// requiring io.Reader, so callers aren't forced to import crypto/rand in
// tests that never exercise MKI generation.
type RandomSource interface {
	Read(p []byte) (int, error)
}

// GenerateMKI draws a policy.MaxGeneratedMKILen-byte MKI from rnd. It
// returns a nil MKI without touching rnd when MaxGeneratedMKILen is zero,
// matching a policy that generates no MKI at all.
func GenerateMKI(rnd RandomSource, policy Policy) ([]byte, error) {
	if policy.MaxGeneratedMKILen <= 0 {
		return nil, nil
	}
	mki := make([]byte, policy.MaxGeneratedMKILen)
	if _, err := io.ReadFull(rnd, mki); err != nil {
		return nil, err
	}
	return mki, nil
}

func marshalUseSRTP(profiles []srtp.ProfileID, mki []byte) ([]byte, error) {
	if len(mki) > maxMKILen {
		return nil, ErrInvalidExtension
	}
	size := 2 + 2*len(profiles) + 1 + len(mki)
	w := packet.NewWriterSize(size)
	w.WriteUint16(uint16(2 * len(profiles)))
	for _, p := range profiles {
		w.WriteUint16(uint16(p))
	}
	w.WriteByte(byte(len(mki)))
	if err := w.WriteSlice(mki); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// ParseClientExtension parses a ClientHello's use_srtp extension body and
// performs the server-side half of profile negotiation: it selects the
// first profile in supportedProfiles that the client also offered (RFC
// 5764 §4.1.1 gives the server, not the client, the final say), and
// returns that single choice in the result's Profiles field. forceDisableMKI
// makes the returned MKI always empty regardless of what the client sent —
// callers typically pass a Policy's DisableServerMKI field here, for
// deployments that keep exactly one SRTP context per DTLS association and
// so have no use for MKI-based context switching.
func ParseClientExtension(body []byte, supportedProfiles []srtp.ProfileID, forceDisableMKI bool) (UseSRTPData, error) {
	data, err := parseUseSRTP(body)
	if err != nil {
		return UseSRTPData{}, err
	}
	if len(data.Profiles) == 0 {
		return UseSRTPData{}, ErrInvalidExtension
	}

	selected, err := SelectProfile(data.Profiles, supportedProfiles)
	if err != nil {
		return UseSRTPData{}, err
	}

	mki := data.MKI
	if forceDisableMKI {
		mki = nil
	}
	return UseSRTPData{Profiles: []srtp.ProfileID{selected}, MKI: mki}, nil
}

// ParseServerExtension parses a ServerHello's use_srtp extension body and
// performs the client-side half of negotiation. A compliant server echoes
// exactly one profile, drawn from offeredProfiles (more than one, or one
// the client never offered, is a fatal negotiation error per RFC 5764
// §4.1.1). If clientMKI is non-empty, the server's returned MKI must equal
// it exactly; a server that echoes a different (or absent) MKI, or that
// returns one the client never sent, fails with ErrMkiMismatch.
func ParseServerExtension(body []byte, offeredProfiles []srtp.ProfileID, clientMKI []byte) (UseSRTPData, error) {
	data, err := parseUseSRTP(body)
	if err != nil {
		return UseSRTPData{}, err
	}
	if len(data.Profiles) != 1 {
		return UseSRTPData{}, ErrInvalidExtension
	}

	offered := false
	for _, p := range offeredProfiles {
		if p == data.Profiles[0] {
			offered = true
			break
		}
	}
	if !offered {
		return UseSRTPData{}, ErrInvalidExtension
	}

	if len(clientMKI) > 0 || len(data.MKI) > 0 {
		if !bytesEqual(data.MKI, clientMKI) {
			return UseSRTPData{}, ErrMkiMismatch
		}
	}

	return data, nil
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

func parseUseSRTP(body []byte) (UseSRTPData, error) {
	r := packet.NewReader(body)
	if err := r.CheckRemaining(2); err != nil {
		return UseSRTPData{}, ErrInvalidExtension
	}
	listLen := r.ReadUint16()
	if listLen == 0 || listLen%2 != 0 {
		return UseSRTPData{}, ErrInvalidExtension
	}
	if err := r.CheckRemaining(int(listLen)); err != nil {
		return UseSRTPData{}, ErrInvalidExtension
	}
	profiles := make([]srtp.ProfileID, 0, listLen/2)
	for i := 0; i < int(listLen); i += 2 {
		profiles = append(profiles, srtp.ProfileID(r.ReadUint16()))
	}
	if err := r.CheckRemaining(1); err != nil {
		return UseSRTPData{}, ErrInvalidExtension
	}
	mkiLen := int(r.ReadByte())
	if mkiLen > maxMKILen {
		return UseSRTPData{}, ErrInvalidExtension
	}
	if err := r.CheckRemaining(mkiLen); err != nil {
		return UseSRTPData{}, ErrInvalidExtension
	}
	var mki []byte
	if mkiLen > 0 {
		mki = append([]byte(nil), r.ReadSlice(mkiLen)...)
	}
	return UseSRTPData{Profiles: profiles, MKI: mki}, nil
}

// SelectProfile picks the first profile in serverSupported that also
// appears in offered, preserving the server's own preference order, as
// RFC 5764 §4.1.1 requires the server (not the client) to choose.
func SelectProfile(offered, serverSupported []srtp.ProfileID) (srtp.ProfileID, error) {
	offeredSet := make(map[srtp.ProfileID]bool, len(offered))
	for _, p := range offered {
		offeredSet[p] = true
	}
	for _, p := range serverSupported {
		if offeredSet[p] {
			return p, nil
		}
	}
	return 0, ErrNoMutualProfile
}
