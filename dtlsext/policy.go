package dtlsext

// Policy controls the negotiation and MKI behavior applied around a DTLS
// handshake's use_srtp extension. The zero value is not valid; use
// DefaultPolicy.
type Policy struct {
	// RequireExtendedMasterSecret rejects a handshake that didn't negotiate
	// RFC 7627's extended_master_secret extension. DTLS-SRTP keying
	// material is derived from the handshake's master secret, so a
	// triple-handshake-style master secret collision would let an
	// attacker forge SRTP keys; requiring EMS closes that off. Checked by
	// DeriveSessionWithPolicy against an ExportedSecretSource.
	RequireExtendedMasterSecret bool

	// MaxGeneratedMKILen bounds the length of an MKI this side generates
	// for itself when offering use_srtp as a client. Consumed by
	// GenerateMKI / BuildClientExtensionWithPolicy.
	MaxGeneratedMKILen int

	// DisableServerMKI, when true, makes a server never echo an MKI back
	// even if the client offered one (some deployments keep exactly one
	// SRTP context per DTLS association and have no use for MKI-based
	// context switching). Pass this field as ParseClientExtension's
	// forceDisableMKI argument to apply it.
	DisableServerMKI bool
}

// DefaultPolicy is the conservative default: extended master secret
// required, generated MKIs capped at 16 bytes, server MKI echoing enabled.
func DefaultPolicy() Policy {
	return Policy{
		RequireExtendedMasterSecret: true,
		MaxGeneratedMKILen:          16,
	}
}
