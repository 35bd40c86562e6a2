package dtlsext

import "errors"

// Sentinel errors for use_srtp extension negotiation and keying material
// derivation. Callers compare against these with errors.Is.
var (
	// ErrInvalidExtension is returned when a use_srtp extension is
	// malformed, or when a server echoes more than one protection profile
	// (a client must treat that as a fatal negotiation error).
	ErrInvalidExtension = errors.New("dtlsext: invalid use_srtp extension")

	// ErrNoMutualProfile is returned when a server finds no protection
	// profile common to its configured list and the client's offer.
	ErrNoMutualProfile = errors.New("dtlsext: no mutual SRTP protection profile")

	// ErrMkiMismatch is returned when a server's chosen MKI does not match
	// any MKI the client offered (or vice versa during verification).
	ErrMkiMismatch = errors.New("dtlsext: MKI does not match any offered value")

	// ErrMissingExtendedMasterSecret is returned when Policy requires the
	// Extended Master Secret extension (RFC 7627) but the handshake did
	// not negotiate it.
	ErrMissingExtendedMasterSecret = errors.New("dtlsext: extended master secret required but not negotiated")
)
