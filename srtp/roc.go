package srtp

// rocState tracks the rollover counter (ROC) and highest received sequence
// number (s_l) needed to reconstruct the 48-bit packet index from a
// packet's 16-bit wire sequence number, per RFC 3711 Appendix A's "Guidelines
// for Updating the ROC."
//
// internal/rtp/rtp.go's delta-based updateIndex and internal/srtp/srtp.go's
// disorder-threshold-based updateRolloverCount take two different,
// mutually inconsistent approaches to this; this type implements the
// canonical Appendix A comparison instead of either, since it is the only
// form that guarantees bit-exact agreement with a conformant peer across
// reordering and rollover.
type rocState struct {
	roc uint32
	sL  uint16

	initialized bool
}

const (
	seqNumMedian = 1 << 15 // 32768
	seqNumMax    = 1 << 16 // 65536
)

// guessIndex estimates the 48-bit packet index for a packet carrying the
// given wire sequence number, without mutating the tracker. Call commit
// after a packet has passed authentication to advance the tracker's state.
func (r *rocState) guessIndex(seq uint16) uint64 {
	if !r.initialized {
		return uint64(seq)
	}

	guessROC := r.roc
	if r.sL < seqNumMedian {
		if int(seq)-int(r.sL) > seqNumMedian {
			guessROC = r.roc - 1
		}
	} else {
		if int(r.sL)-seqNumMedian > int(seq) {
			guessROC = r.roc + 1
		}
	}

	return uint64(guessROC)<<16 | uint64(seq)
}

// commit advances ROC and s_l to reflect a packet that has been
// authenticated and accepted at the given index. Per RFC 3711 §3.3.2, s_l
// tracks the sequence number of the packet with the highest index received
// so far, not merely the most recently accepted packet — a legitimately
// reordered, lower-index packet must not pull s_l backward, or the next
// genuine forward packet's ROC guess in guessIndex will be thrown off.
func (r *rocState) commit(seq uint16, index uint64) {
	if !r.initialized {
		r.sL = seq
		r.roc = uint32(index >> 16)
		r.initialized = true
		return
	}

	highest := uint64(r.roc)<<16 | uint64(r.sL)
	if index <= highest {
		return
	}
	r.roc = uint32(index >> 16)
	r.sL = seq
}
