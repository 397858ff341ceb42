package allocator

import (
	"github.com/flier/allocgo/internal/debug"
	"github.com/flier/allocgo/pkg/xerrors"
)

// Strategy identifies which free-block index discipline a Heap has
// latched onto.
type Strategy int

const (
	StrategyUnset Strategy = iota
	StrategyFirstFit
	StrategyNextFit
	StrategyBestFit
	StrategyWorstFit
)

func (s Strategy) String() string {
	switch s {
	case StrategyFirstFit:
		return "first-fit"
	case StrategyNextFit:
		return "next-fit"
	case StrategyBestFit:
		return "best-fit"
	case StrategyWorstFit:
		return "worst-fit"
	default:
		return "unset"
	}
}

// Latch pre-arms, or checks, this heap's strategy. The first call (from
// here or from any Alloc* method) wins; a later call naming a different
// strategy aborts the process, since the list and tree indices interpret a
// block's free-metadata fields completely differently and cannot be mixed.
func (h *Heap) Latch(s Strategy) {
	if h.strategy == StrategyUnset {
		h.strategy = s
		debug.Log(nil, "latch", "%s", s)
		return
	}
	if h.strategy != s {
		debug.Log(nil, "latch", "rejected %s: already latched to %s", s, h.strategy)
		h.abort(&xerrors.StrategyConflict{Latched: h.strategy.String(), Requested: s.String()})
	}
}

func (h *Heap) abort(err error) {
	if h.opts.Abort != nil {
		h.opts.Abort(err)
		return
	}
	xerrors.Abort(err)
}

// indexInsert and its siblings route to whichever index the latched
// strategy uses. Called with StrategyUnset (no allocation has happened
// yet) they are no-ops, which only matters for Free on an empty heap.
func (h *Heap) indexInsert(b *block) {
	b.resetIndexFields()

	switch h.strategy {
	case StrategyFirstFit, StrategyNextFit:
		h.list.insert(b)
	case StrategyBestFit, StrategyWorstFit:
		h.tree.insert(b)
	}
}

func (h *Heap) indexRemove(b *block) {
	switch h.strategy {
	case StrategyFirstFit, StrategyNextFit:
		h.list.remove(b)
	case StrategyBestFit, StrategyWorstFit:
		h.tree.remove(b)
	}
}

func (h *Heap) indexFind(need uintptr) *block {
	switch h.strategy {
	case StrategyFirstFit:
		return h.list.findFirstFit(need)
	case StrategyNextFit:
		return h.list.findNextFit(need)
	case StrategyBestFit:
		return h.tree.bestFit(need)
	case StrategyWorstFit:
		return h.tree.worstFit(need)
	default:
		return nil
	}
}
