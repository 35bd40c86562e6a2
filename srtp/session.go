package srtp

import intcipher "github.com/lanikai/dtlssrtp/internal/cipher"

// Role identifies which side of the DTLS handshake a Session is acting as,
// which determines whether the local direction uses the client or server
// half of the exported keying material.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// MasterKeyingMaterial is the symmetric key material exported from a DTLS
// handshake and split into per-direction halves, per RFC 5764 §4.2. For
// nested "double" profiles, each key/salt field is inner||outer
// concatenated (see package dtlsext's keying-derivation code for the byte
// layout pulled out of the raw exported secret).
type MasterKeyingMaterial struct {
	ClientWriteKey  []byte
	ServerWriteKey  []byte
	ClientWriteSalt []byte
	ServerWriteSalt []byte

	// MKI is the master key identifier negotiated for this session, or nil.
	MKI []byte
}

// Destroy zeroizes all four key/salt fields. The MasterKeyingMaterial must
// not be used afterward.
func (m *MasterKeyingMaterial) Destroy() {
	intcipher.Zeroize(m.ClientWriteKey)
	intcipher.Zeroize(m.ServerWriteKey)
	intcipher.Zeroize(m.ClientWriteSalt)
	intcipher.Zeroize(m.ServerWriteSalt)
}

// Session binds a single negotiated protection profile and its exported
// keying material into two directional Contexts: outgoing and incoming.
//
// RTP and RTCP share each Context (protect/unprotect for each travel
// through the same master key/salt, per RFC 3711 §3.2's "cryptographic
// context" definition, which a single SRTP master key always covers both
// SRTP and SRTCP); there are no separate RTCP Contexts. Within a Context the
// RTP state (ROC, replay window) and the RTCP state (SRTCP index, SRTCP
// replay check) are kept in independent fields.
type Session struct {
	Profile ProtectionProfile

	outgoing *Context
	incoming *Context
}

// DeriveSession builds a Session for the given role from the profile and
// exported master keying material. The local ("outgoing") direction uses
// ClientWriteKey/Salt when role is RoleClient, ServerWriteKey/Salt when
// RoleServer; the peer's ("incoming") direction uses the other half.
func DeriveSession(profile ProtectionProfile, m *MasterKeyingMaterial, role Role) (*Session, error) {
	var localKey, localSalt, peerKey, peerSalt []byte
	switch role {
	case RoleClient:
		localKey, localSalt = m.ClientWriteKey, m.ClientWriteSalt
		peerKey, peerSalt = m.ServerWriteKey, m.ServerWriteSalt
	case RoleServer:
		localKey, localSalt = m.ServerWriteKey, m.ServerWriteSalt
		peerKey, peerSalt = m.ClientWriteKey, m.ClientWriteSalt
	}

	outgoing, err := NewContext(profile, localKey, localSalt, m.MKI)
	if err != nil {
		return nil, err
	}
	incoming, err := NewContext(profile, peerKey, peerSalt, m.MKI)
	if err != nil {
		return nil, err
	}

	return &Session{Profile: profile, outgoing: outgoing, incoming: incoming}, nil
}

// Outgoing returns the Context used to protect packets sent by this peer.
func (s *Session) Outgoing() *Context { return s.outgoing }

// Incoming returns the Context used to unprotect packets received from the
// peer.
func (s *Session) Incoming() *Context { return s.incoming }

// Destroy zeroizes both directional contexts' key material.
func (s *Session) Destroy() {
	s.outgoing.Destroy()
	s.incoming.Destroy()
}
