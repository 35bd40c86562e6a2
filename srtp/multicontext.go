package srtp

// MultiContext dispatches inbound packets to the right single-MKI Context
// by reading the trailing MKI off the wire, for peers that rekey via MKI
// rollover (RFC 3711 §3.2) rather than renegotiating the whole handshake.
//
// A context bound to a single (profile, MKI) pair treats any other MKI as
// a hard mismatch; this only makes operational sense if something holds
// more than one such context at a time and picks the right one before the
// mismatch check ever applies. See DESIGN.md.
type MultiContext struct {
	mkiLen   int
	contexts map[string]*Context
}

// NewMultiContext builds a MultiContext expecting every context registered
// with it to use an MKI of length mkiLen.
func NewMultiContext(mkiLen int) *MultiContext {
	return &MultiContext{mkiLen: mkiLen, contexts: make(map[string]*Context)}
}

// Add registers ctx under its own MKI. ctx.MKI() must be mkiLen bytes.
func (mc *MultiContext) Add(ctx *Context) error {
	if len(ctx.MKI()) != mc.mkiLen {
		return ErrBadMKI
	}
	mc.contexts[string(ctx.MKI())] = ctx
	return nil
}

// Remove unregisters the context for the given MKI, if any.
func (mc *MultiContext) Remove(mki []byte) {
	delete(mc.contexts, string(mki))
}

// UnprotectRTP looks up the Context for buf's trailing MKI and delegates
// to it.
func (mc *MultiContext) UnprotectRTP(buf []byte, hdr *rtpHeader) ([]byte, error) {
	ctx, err := mc.lookup(buf)
	if err != nil {
		return nil, err
	}
	return ctx.UnprotectRTP(buf, hdr)
}

// UnprotectRTCP looks up the Context for buf's trailing MKI and delegates
// to it.
func (mc *MultiContext) UnprotectRTCP(buf []byte) ([]byte, uint64, error) {
	ctx, err := mc.lookup(buf)
	if err != nil {
		return nil, 0, err
	}
	return ctx.UnprotectRTCP(buf)
}

func (mc *MultiContext) lookup(buf []byte) (*Context, error) {
	if len(buf) < mc.mkiLen {
		return nil, ErrShortPacket
	}
	mki := buf[len(buf)-mc.mkiLen:]
	ctx, ok := mc.contexts[string(mki)]
	if !ok {
		return nil, ErrBadMKI
	}
	return ctx, nil
}
