package cipher

// DoubleAEAD composes two independent AEAD layers into the nested
// "double" construction of RFC 8723: an inner layer (end-to-end) sealed
// first, then an outer layer (hop-by-hop) sealed over the inner ciphertext,
// both under the same associated data (the packet header). Nothing else in
// this codebase implements AEAD nesting (internal/rtp/srtp.go only ever
// does AES-CM), so this composition is built directly from RFC 8723 §4's
// packet-format description, reusing the plain AEAD type above for each
// layer.
type DoubleAEAD struct {
	Inner AEAD
	Outer AEAD
}

// SealWithNonces runs the inner seal (AAD = header) followed by the outer
// seal (AAD = header), and returns header || outer ciphertext || outer tag.
// Output size is len(plaintext) + 2 * tag length, per RFC 8723's nested
// framing. The outer layer's AAD is the header alone rather than
// header || inner: the inner ciphertext is exactly what the outer layer
// encrypts, so it isn't available to authenticate as associated data
// without being decrypted first, and it must stay that way so Open can
// reconstruct the same AAD before it has recovered anything. Callers
// (srtp.Context) build the two nonces from their own independently
// derived inner/outer session salts rather than passing an all-zero
// placeholder.
func (d *DoubleAEAD) SealWithNonces(header, plaintext, innerNonce, outerNonce []byte) []byte {
	inner := d.Inner.Seal(nil, innerNonce, plaintext, header)
	outer := d.Outer.Seal(nil, outerNonce, inner, header)

	out := make([]byte, 0, len(header)+len(outer))
	out = append(out, header...)
	out = append(out, outer...)
	return out
}

// OpenWithNonces is the inverse of SealWithNonces. It first opens the outer
// layer (AAD = header) to recover the inner ciphertext and tag verbatim,
// then opens the inner layer (AAD = header) to recover the plaintext.
func (d *DoubleAEAD) OpenWithNonces(header, body, innerNonce, outerNonce []byte) ([]byte, error) {
	if len(body) < d.Outer.Overhead() {
		return nil, errShortDoubleAEAD
	}

	inner, err := d.Outer.Open(nil, outerNonce, body, header)
	if err != nil {
		return nil, err
	}

	return d.Inner.Open(nil, innerNonce, inner, header)
}

// Overhead is the combined tag overhead of both layers.
func (d *DoubleAEAD) Overhead() int {
	return d.Inner.Overhead() + d.Outer.Overhead()
}

var errShortDoubleAEAD = shortDoubleAEADError{}

type shortDoubleAEADError struct{}

func (shortDoubleAEADError) Error() string { return "double AEAD packet too short for outer tag" }
