package srtp

import "github.com/pkg/errors"

// ProfileID identifies an SRTP protection profile, as negotiated by the
// use_srtp DTLS extension (RFC 5764 §4.1.2).
type ProfileID uint16

// Registered protection profiles. Values match the IANA "DTLS-SRTP
// Protection Profile" registry: RFC 5764 (CM profiles), RFC 7714 (AEAD AES
// GCM), RFC 8269 (ARIA), and RFC 8723 (double AEAD).
const (
	ProfileAES128CMHMACSHA1_80 ProfileID = 0x0001
	ProfileAES128CMHMACSHA1_32 ProfileID = 0x0002
	ProfileAES128F8HMACSHA1_80 ProfileID = 0x0003
	ProfileAES128F8HMACSHA1_32 ProfileID = 0x0004
	ProfileNULLHMACSHA1_80     ProfileID = 0x0005
	ProfileNULLHMACSHA1_32     ProfileID = 0x0006
	ProfileAEADAES128GCM       ProfileID = 0x0007
	ProfileAEADAES256GCM       ProfileID = 0x0008
	ProfileDoubleAEADAES128GCM ProfileID = 0x0009
	ProfileDoubleAEADAES256GCM ProfileID = 0x000A
	ProfileARIA128CTRHMACSHA1_80 ProfileID = 0x000B
	ProfileARIA128CTRHMACSHA1_32 ProfileID = 0x000C
	ProfileARIA256CTRHMACSHA1_80 ProfileID = 0x000D
	ProfileARIA256CTRHMACSHA1_32 ProfileID = 0x000E
	ProfileAEADARIA128GCM        ProfileID = 0x000F
	ProfileAEADARIA256GCM        ProfileID = 0x0010
)

// CipherKind names the cipher family a profile uses, independent of key
// size or tag length.
type CipherKind int

const (
	CipherAES128CM CipherKind = iota
	CipherAES256CM
	CipherAES128F8
	CipherNULL
	CipherAEADAES128GCM
	CipherAEADAES256GCM
	CipherARIA128CTR
	CipherARIA256CTR
	CipherAEADARIA128GCM
	CipherAEADARIA256GCM
	CipherDoubleAEADAES128GCM
	CipherDoubleAEADAES256GCM
)

// AuthKind names the authentication transform a profile uses. AEAD profiles
// authenticate as part of the cipher itself and so carry AuthNone.
type AuthKind int

const (
	AuthNone AuthKind = iota
	AuthHMACSHA1
)

// ProtectionProfile describes the cryptographic parameters bound to a
// ProfileID: cipher family, key/salt sizes, authentication transform and
// tag length, and key-derivation rate. Grounded on dtls.go's
// protectionProfile [2]uint8 type and SRTP_AES128_CM_HMAC_SHA1_80 naming
// convention, generalized into a full field-carrying record since this
// package, unlike that one, must derive keys and protect packets, not just
// negotiate a profile ID on the wire.
type ProtectionProfile struct {
	ID ProfileID

	Cipher CipherKind

	// KeyBits and SaltBits are the sizes, in bits, of the master (and
	// session) encryption key and salt respectively.
	KeyBits  int
	SaltBits int

	Auth        AuthKind
	AuthTagBits int

	// KDR is the key derivation rate: session keys are re-derived whenever
	// index/KDR changes. Zero means "never re-derive."
	KDR uint64

	// MKIAllowed is true for every profile in this registry; retained as an
	// explicit field because a future profile could, in principle, forbid
	// MKI use, and every other field here is already profile-specific.
	MKIAllowed bool

	// Double reports whether this is one of the nested "double" AEAD
	// profiles (RFC 8723). KeyBits/SaltBits then give the size of one
	// layer; the master key and salt are inner||outer, twice that size.
	Double bool
}

// isAEAD reports whether the profile authenticates as part of encryption
// rather than via a separate HMAC pass.
func (p ProtectionProfile) isAEAD() bool {
	switch p.Cipher {
	case CipherAEADAES128GCM, CipherAEADAES256GCM,
		CipherAEADARIA128GCM, CipherAEADARIA256GCM,
		CipherDoubleAEADAES128GCM, CipherDoubleAEADAES256GCM:
		return true
	default:
		return false
	}
}

// isARIA reports whether the profile's block/AEAD primitive is ARIA rather
// than AES.
func (p ProtectionProfile) isARIA() bool {
	switch p.Cipher {
	case CipherARIA128CTR, CipherARIA256CTR, CipherAEADARIA128GCM, CipherAEADARIA256GCM:
		return true
	default:
		return false
	}
}

// isF8 reports whether the profile uses the f8 keystream mode rather than
// counter mode.
func (p ProtectionProfile) isF8() bool {
	return p.Cipher == CipherAES128F8
}

// isNULL reports whether the profile performs no encryption at all
// (authentication-only).
func (p ProtectionProfile) isNULL() bool {
	return p.Cipher == CipherNULL
}

// Profile looks up a registered ProtectionProfile by ID.
func Profile(id ProfileID) (ProtectionProfile, error) {
	p, ok := profileRegistry[id]
	if !ok {
		return ProtectionProfile{}, errors.Errorf("srtp: unregistered profile id %#04x", uint16(id))
	}
	return p, nil
}

var profileRegistry = buildRegistry()

func buildRegistry() map[ProfileID]ProtectionProfile {
	reg := map[ProfileID]ProtectionProfile{
		ProfileAES128CMHMACSHA1_80: {
			ID: ProfileAES128CMHMACSHA1_80, Cipher: CipherAES128CM,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 80,
			KDR: 0, MKIAllowed: true,
		},
		ProfileAES128CMHMACSHA1_32: {
			ID: ProfileAES128CMHMACSHA1_32, Cipher: CipherAES128CM,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 32,
			KDR: 0, MKIAllowed: true,
		},
		ProfileAES128F8HMACSHA1_80: {
			ID: ProfileAES128F8HMACSHA1_80, Cipher: CipherAES128F8,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 80,
			KDR: 0, MKIAllowed: true,
		},
		ProfileAES128F8HMACSHA1_32: {
			ID: ProfileAES128F8HMACSHA1_32, Cipher: CipherAES128F8,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 32,
			KDR: 0, MKIAllowed: true,
		},
		ProfileNULLHMACSHA1_80: {
			ID: ProfileNULLHMACSHA1_80, Cipher: CipherNULL,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 80,
			KDR: 0, MKIAllowed: true,
		},
		ProfileNULLHMACSHA1_32: {
			ID: ProfileNULLHMACSHA1_32, Cipher: CipherNULL,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 32,
			KDR: 0, MKIAllowed: true,
		},
		ProfileAEADAES128GCM: {
			ID: ProfileAEADAES128GCM, Cipher: CipherAEADAES128GCM,
			KeyBits: 128, SaltBits: 96, Auth: AuthNone, AuthTagBits: 128,
			KDR: 0, MKIAllowed: true,
		},
		ProfileAEADAES256GCM: {
			ID: ProfileAEADAES256GCM, Cipher: CipherAEADAES256GCM,
			KeyBits: 256, SaltBits: 96, Auth: AuthNone, AuthTagBits: 128,
			KDR: 0, MKIAllowed: true,
		},
		ProfileDoubleAEADAES128GCM: {
			ID: ProfileDoubleAEADAES128GCM, Cipher: CipherDoubleAEADAES128GCM,
			KeyBits: 128, SaltBits: 96, Auth: AuthNone, AuthTagBits: 128,
			KDR: 0, MKIAllowed: true, Double: true,
		},
		ProfileDoubleAEADAES256GCM: {
			ID: ProfileDoubleAEADAES256GCM, Cipher: CipherDoubleAEADAES256GCM,
			KeyBits: 256, SaltBits: 96, Auth: AuthNone, AuthTagBits: 128,
			KDR: 0, MKIAllowed: true, Double: true,
		},
		ProfileARIA128CTRHMACSHA1_80: {
			ID: ProfileARIA128CTRHMACSHA1_80, Cipher: CipherARIA128CTR,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 80,
			KDR: 0, MKIAllowed: true,
		},
		ProfileARIA128CTRHMACSHA1_32: {
			ID: ProfileARIA128CTRHMACSHA1_32, Cipher: CipherARIA128CTR,
			KeyBits: 128, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 32,
			KDR: 0, MKIAllowed: true,
		},
		ProfileARIA256CTRHMACSHA1_80: {
			ID: ProfileARIA256CTRHMACSHA1_80, Cipher: CipherARIA256CTR,
			KeyBits: 256, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 80,
			KDR: 0, MKIAllowed: true,
		},
		ProfileARIA256CTRHMACSHA1_32: {
			ID: ProfileARIA256CTRHMACSHA1_32, Cipher: CipherARIA256CTR,
			KeyBits: 256, SaltBits: 112, Auth: AuthHMACSHA1, AuthTagBits: 32,
			KDR: 0, MKIAllowed: true,
		},
		ProfileAEADARIA128GCM: {
			ID: ProfileAEADARIA128GCM, Cipher: CipherAEADARIA128GCM,
			KeyBits: 128, SaltBits: 96, Auth: AuthNone, AuthTagBits: 128,
			KDR: 0, MKIAllowed: true,
		},
		ProfileAEADARIA256GCM: {
			ID: ProfileAEADARIA256GCM, Cipher: CipherAEADARIA256GCM,
			KeyBits: 256, SaltBits: 96, Auth: AuthNone, AuthTagBits: 128,
			KDR: 0, MKIAllowed: true,
		},
	}

	for id, p := range reg {
		if err := validateProfile(p); err != nil {
			panic(errors.Errorf("profile %#04x: %v", uint16(id), err))
		}
	}
	return reg
}

// validateProfile enforces the registry invariants: KDR is a power of two
// or zero; AEAD profiles carry no separate HMAC; the NULL cipher requires
// HMAC-SHA1.
func validateProfile(p ProtectionProfile) error {
	if p.KDR != 0 && p.KDR&(p.KDR-1) != 0 {
		return errors.New("KDR must be a power of two or zero")
	}
	isAEAD := p.Cipher == CipherAEADAES128GCM || p.Cipher == CipherAEADAES256GCM ||
		p.Cipher == CipherAEADARIA128GCM || p.Cipher == CipherAEADARIA256GCM ||
		p.Cipher == CipherDoubleAEADAES128GCM || p.Cipher == CipherDoubleAEADAES256GCM
	if isAEAD {
		if p.Auth != AuthNone {
			return errors.New("AEAD profiles must not declare a separate auth transform")
		}
		if p.AuthTagBits < 96 {
			return errors.New("AEAD profiles require a tag of at least 96 bits")
		}
	}
	if p.Cipher == CipherNULL && p.Auth != AuthHMACSHA1 {
		return errors.New("NULL cipher profiles require HMAC-SHA1 authentication")
	}
	return nil
}
