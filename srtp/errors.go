package srtp

import "errors"

// Sentinel errors returned by Context/Session operations. Callers are
// expected to compare against these with errors.Is rather than inspect
// message text.
var (
	// ErrShortPacket is returned when a buffer is too short to contain a
	// valid RTP/RTCP header, or too short to contain the trailing
	// authentication tag (and, for SRTCP, the 4-byte index) a profile
	// requires.
	ErrShortPacket = errors.New("srtp: packet too short")

	// ErrBadMKI is returned by MultiContext when a packet's trailing MKI
	// does not match any registered context.
	ErrBadMKI = errors.New("srtp: no context registered for MKI")

	// ErrReplay is returned when an inbound packet's index has already been
	// seen, per the replay window.
	ErrReplay = errors.New("srtp: packet already processed (replay)")

	// ErrTooOld is returned when an inbound packet's index falls below the
	// trailing edge of the replay window and so can no longer be evaluated.
	ErrTooOld = errors.New("srtp: packet index too old")

	// ErrAuthFailed is returned when the authentication tag (or, for an
	// AEAD profile, the combined cipher/auth tag) does not verify.
	ErrAuthFailed = errors.New("srtp: authentication failed")

	// ErrIndexExhausted is returned when a sender has emitted 2^48 SRTP
	// packets (or 2^31 SRTCP packets) on a single context and must rekey
	// before sending another, per the packet index exhaustion rule.
	ErrIndexExhausted = errors.New("srtp: packet index space exhausted, rekey required")
)
