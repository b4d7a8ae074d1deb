package revise

import (
	"github.com/jaksonlabs/carbonfmt/container"
)

// NeedsPack reports whether any column in cols carries at least one
// trailing null slot that Shrink could reclaim, without mutating
// anything. key is accepted for call-site symmetry with Begin/TryBegin
// (callers typically pass the record's string key or commit hash) but is
// otherwise unused: §5 fixes the scheduling model to parallel threads with
// no goroutines, so there is no in-flight call for a concurrent caller to
// coalesce onto, and each call simply runs Plan directly.
func NeedsPack(key string, cols []*container.ColumnIterator) (bool, error) {
	plans, err := Plan(cols)
	if err != nil {
		return false, err
	}
	for _, p := range plans {
		if p.TrailingNulls > 0 {
			return true, nil
		}
	}
	return false, nil
}
