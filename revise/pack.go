package revise

import (
	"github.com/jaksonlabs/carbonfmt/container"
)

// ColumnPlan is the outcome of analyzing one column for trailing null
// slots that Shrink can drop without touching any live value.
type ColumnPlan struct {
	Column        *container.ColumnIterator
	TrailingNulls int
}

// analyzeColumnTrailingNulls counts null slots at the tail of col, walking
// backward from its last populated slot until a non-null value is found.
func analyzeColumnTrailingNulls(col *container.ColumnIterator) (int, error) {
	n := 0
	for i := col.Count() - 1; i >= 0; i-- {
		isNull, err := col.ValueIsNull(i)
		if err != nil {
			return 0, err
		}
		if !isNull {
			break
		}
		n++
	}
	return n, nil
}

// Plan analyzes each column's trailing-null count in turn. §5 fixes the
// scheduling model to parallel threads with no goroutines, so this walks
// cols sequentially rather than fanning the analysis out.
func Plan(cols []*container.ColumnIterator) ([]ColumnPlan, error) {
	plans := make([]ColumnPlan, len(cols))
	for i, col := range cols {
		n, err := analyzeColumnTrailingNulls(col)
		if err != nil {
			return nil, err
		}
		plans[i] = ColumnPlan{Column: col, TrailingNulls: n}
	}
	return plans, nil
}

// Shrink applies a Plan serially: each planned column has its trailing
// null slots removed from the tail inward, which lowers its count; its
// capacity and reserved slot bytes are not released. Columns share one
// MemFile, and a count rewrite that changes the count's encoded length
// shifts every later column's offsets (propagated via notifyDelta), so the
// plans are applied one at a time.
func Shrink(plans []ColumnPlan) (int, error) {
	total := 0
	for _, p := range plans {
		for k := 0; k < p.TrailingNulls; k++ {
			if err := p.Column.Remove(p.Column.Count() - 1); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}
