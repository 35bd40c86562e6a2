package cipher

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"hash"
	"sync"
)

// Authenticator computes and verifies truncated message-authentication tags
// for the HMAC-SHA1-based protection profiles (and the NULL no-op variant
// required by the *_NULL_HMAC_SHA1_* profiles, which still authenticate even
// though they never encrypt).
type Authenticator interface {
	// Tag computes the truncated authentication tag over M.
	Tag(m []byte) []byte

	// Verify reports whether tag is the correct (constant-time-compared) tag
	// for M. Every tag comparison in this package goes through Verify so none
	// of them are ever short-circuiting.
	Verify(m, tag []byte) bool
}

// NewHMACSHA1 builds an HMAC-SHA1 authenticator truncated to tagLen bytes,
// grounded on internal/rtp/srtp.go's hmacSHA1/authFunc, including its
// sync.Pool reuse of hash.Hash to avoid a per-packet allocation on the
// protect/unprotect hot path.
func NewHMACSHA1(authKey []byte, tagLen int) Authenticator {
	pool := sync.Pool{
		New: func() interface{} {
			return hmac.New(sha1.New, authKey)
		},
	}
	return &hmacAuthenticator{pool: &pool, tagLen: tagLen}
}

type hmacAuthenticator struct {
	pool   *sync.Pool
	tagLen int
}

func (a *hmacAuthenticator) Tag(m []byte) []byte {
	mac := a.pool.Get().(hash.Hash)
	mac.Write(m)
	tag := mac.Sum(nil)[:a.tagLen]
	mac.Reset()
	a.pool.Put(mac)
	return tag
}

func (a *hmacAuthenticator) Verify(m, tag []byte) bool {
	if len(tag) != a.tagLen {
		return false
	}
	expected := a.Tag(m)
	// subtle.ConstantTimeCompare, not bytes.Equal: a short-circuiting
	// byte-wise compare here would leak tag bytes through timing.
	return subtle.ConstantTimeCompare(expected, tag) == 1
}

// NullAuthenticator is the degenerate authenticator for a cipher suite that
// carries no MAC at all. None of the registered profiles use it (the NULL
// cipher profiles still require HMAC-SHA1); kept for completeness and for
// tests that exercise the authenticator interface in isolation.
type NullAuthenticator struct{}

func (NullAuthenticator) Tag([]byte) []byte       { return nil }
func (NullAuthenticator) Verify([]byte, []byte) bool { return true }
