package srtp

// replayWindowSize is the number of trailing packet indices tracked for
// duplicate detection, chosen to tolerate substantial reordering while
// keeping the bitmap a single uint64.
const replayWindowSize = 64

// replayWindow is a sliding bitmap of recently seen packet indices.
// internal/rtp/srtp.go's cryptoContext carries no replay detector (its
// comment notes "TODO: Replay lists"), so this is built fresh, in the same
// idiom as its other stateful per-context trackers (rocState, rtpReader): a
// small value type with check/update methods.
type replayWindow struct {
	// highest is the highest index accepted so far.
	highest uint64

	// bitmap marks indices (highest-63)..highest as seen, bit 0 == highest.
	bitmap uint64

	initialized bool
}

// check reports whether index is acceptable: not a duplicate, and not so
// old that it falls outside the window. It does not mutate the window;
// call accept once the packet has also passed authentication.
func (w *replayWindow) check(index uint64) error {
	if !w.initialized {
		return nil
	}

	if index > w.highest {
		return nil
	}

	delta := w.highest - index
	if delta >= replayWindowSize {
		return ErrTooOld
	}

	if w.bitmap&(1<<delta) != 0 {
		return ErrReplay
	}

	return nil
}

// accept marks index as seen, advancing the window if index is a new high.
func (w *replayWindow) accept(index uint64) {
	if !w.initialized {
		w.highest = index
		w.bitmap = 1
		w.initialized = true
		return
	}

	switch {
	case index > w.highest:
		shift := index - w.highest
		if shift >= replayWindowSize {
			w.bitmap = 0
		} else {
			w.bitmap <<= shift
		}
		w.bitmap |= 1
		w.highest = index

	case index == w.highest:
		w.bitmap |= 1

	default:
		delta := w.highest - index
		if delta < replayWindowSize {
			w.bitmap |= 1 << delta
		}
	}
}

// monotonicReplay enforces strict replay protection for SRTCP: an index
// is acceptable only if it is strictly greater than the last one accepted
// for this SSRC. Unlike RTP's replayWindow, SRTCP gets no reordering
// tolerance; this is a one-bit version of the same check/accept shape.
type monotonicReplay struct {
	highest     uint64
	initialized bool
}

func (w *monotonicReplay) check(index uint64) error {
	if !w.initialized {
		return nil
	}
	if index <= w.highest {
		return ErrReplay
	}
	return nil
}

func (w *monotonicReplay) accept(index uint64) {
	w.highest = index
	w.initialized = true
}
