package table

import "math"

// Kind represents the declared type of a column
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Missing is the numeric missing/undefined sentinel. Every undefined numeric
// value in the pipeline is this NaN, never an infinity.
func Missing() float64 {
	return math.NaN()
}

// IsMissingValue reports whether a numeric value is the missing sentinel
func IsMissingValue(v float64) bool {
	return math.IsNaN(v)
}

// Column is one typed column of a table. Numeric columns store NaN for
// missing values; categorical columns store the empty string.
type Column struct {
	Name string
	Kind Kind

	nums []float64
	strs []string
}

// NumericColumn builds a numeric column from values (NaN marks missing)
func NumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, nums: values}
}

// CategoricalColumn builds a categorical column from values ("" marks missing)
func CategoricalColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindCategorical, strs: values}
}

// Len returns the number of rows in the column
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.nums)
	}
	return len(c.strs)
}

// IsMissing reports whether row i holds a missing-or-blank value
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.nums[i])
	}
	return c.strs[i] == ""
}

// MissingCount counts missing-or-blank values in the column
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Floats returns the numeric values. Callers must not mutate the slice;
// stages that change values go through Table.WithNumeric.
func (c *Column) Floats() []float64 {
	return c.nums
}

// Strings returns the categorical values. Same aliasing rule as Floats.
func (c *Column) Strings() []string {
	return c.strs
}

// Observed returns the non-missing numeric values
func (c *Column) Observed() []float64 {
	out := make([]float64, 0, len(c.nums))
	for _, v := range c.nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Levels returns the distinct observed categorical values, in first-seen order
func (c *Column) Levels() []string {
	seen := make(map[string]bool)
	var levels []string
	for _, v := range c.strs {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		levels = append(levels, v)
	}
	return levels
}

// clone deep-copies the column
func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.nums != nil {
		out.nums = append([]float64(nil), c.nums...)
	}
	if c.strs != nil {
		out.strs = append([]string(nil), c.strs...)
	}
	return out
}

// filter keeps only the rows where keep[i] is true
func (c *Column) filter(keep []bool) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == KindNumeric {
		for i, v := range c.nums {
			if keep[i] {
				out.nums = append(out.nums, v)
			}
		}
		return out
	}
	for i, v := range c.strs {
		if keep[i] {
			out.strs = append(out.strs, v)
		}
	}
	return out
}
