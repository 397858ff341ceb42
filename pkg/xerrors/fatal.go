package xerrors

import "fmt"

// StrategyConflict is raised when a caller requests a different allocation
// strategy than the one the process latched onto on its first call.
//
// Strategies may not be mixed within one process lifetime because the two
// index representations (free-list, tree) are mutually exclusive: switching
// would require walking the other index's intrusive fields on every live
// block, which the allocator never does.
type StrategyConflict struct {
	Latched, Requested string
}

func (e *StrategyConflict) Error() string {
	return fmt.Sprintf("allocgo: strategy %q already latched, cannot switch to %q", e.Latched, e.Requested)
}

// Abort is called on an unrecoverable programmer error (spec: StrategyConflict).
//
// It is a variable, not a plain panic call, so tests can replace it with
// something that records the diagnostic instead of crashing the test binary.
var Abort = func(err error) {
	panic(err)
}
