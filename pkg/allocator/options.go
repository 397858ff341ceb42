package allocator

// Options configures a Heap. The zero Options selects the documented
// defaults, matching the functional-options style used elsewhere in the
// buddy-allocator corner of this domain, but kept as a plain struct since a
// Heap has exactly two knobs worth exposing.
type Options struct {
	// ArenaMin overrides the minimum number of bytes mapped per arena.
	// Zero means ArenaMin (1 MiB).
	ArenaMin uintptr

	// Abort, if set, replaces xerrors.Abort as the StrategyConflict fatal
	// path. Tests use this to observe the abort instead of crashing the
	// test binary.
	Abort func(error)
}

func (o Options) arenaMin() uintptr {
	if o.ArenaMin == 0 {
		return ArenaMin
	}
	return o.ArenaMin
}
