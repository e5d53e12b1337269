package survey

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Dataset is the analysis view of a cleaned survey table.
// Numeric columns are parsed once; missing cells become NaN.
type Dataset struct {
	names   []string
	numeric map[string][]float64
	text    map[string][]string
	n       int
}

// FromTable converts a cleaned Table. A column is numeric when every
// non-missing cell parses as a float; the timestamp column always stays text.
func FromTable(t *Table) *Dataset {
	d := &Dataset{
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
		n:       t.Len(),
	}
	for _, name := range t.Columns() {
		d.names = append(d.names, name)
		cells := t.Column(name)
		if name != ColTimestamp {
			if values, ok := parseNumeric(cells); ok {
				d.numeric[name] = values
				continue
			}
		}
		d.text[name] = slices.Clone(cells)
	}
	return d
}

func parseNumeric(cells []string) ([]float64, bool) {
	values := make([]float64, len(cells))
	for i, c := range cells {
		if IsMissing(c) {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// Len returns the number of respondents
func (d *Dataset) Len() int { return d.n }

// Columns returns all column names in file order
func (d *Dataset) Columns() []string { return slices.Clone(d.names) }

// Has reports whether the column exists
func (d *Dataset) Has(name string) bool {
	_, num := d.numeric[name]
	_, txt := d.text[name]
	return num || txt
}

// IsNumeric reports whether the column was parsed as numbers
func (d *Dataset) IsNumeric(name string) bool {
	_, ok := d.numeric[name]
	return ok
}

// Float returns a numeric column, or nil when it is absent or textual.
// The returned slice is shared with the dataset.
func (d *Dataset) Float(name string) []float64 {
	return d.numeric[name]
}

// Strings returns a column as text; numeric columns are formatted
func (d *Dataset) Strings(name string) []string {
	if txt, ok := d.text[name]; ok {
		return txt
	}
	values, ok := d.numeric[name]
	if !ok {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatFloat(v)
	}
	return out
}

// NumericColumns returns the numeric column names in file order
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, name := range d.names {
		if _, ok := d.numeric[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// ColumnsWithPrefix returns the numeric columns starting with prefix, in file order
func (d *Dataset) ColumnsWithPrefix(prefix string) []string {
	var out []string
	for _, name := range d.names {
		if _, ok := d.numeric[name]; ok && strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// SetFloat adds or replaces a numeric column
func (d *Dataset) SetFloat(name string, values []float64) error {
	if len(values) != d.n {
		return fmt.Errorf("%w: column %q has %d values, dataset has %d rows", ErrLengthMismatch, name, len(values), d.n)
	}
	if !d.Has(name) {
		d.names = append(d.names, name)
	}
	delete(d.text, name)
	d.numeric[name] = values
	return nil
}

// Hours returns the submission hour of each row, -1 when the timestamp is unusable
func (d *Dataset) Hours() []int {
	hours := make([]int, d.n)
	cells := d.text[ColTimestamp]
	for i := range hours {
		hours[i] = -1
		if cells == nil {
			continue
		}
		if ts, err := time.Parse(TimestampLayout, strings.TrimSpace(cells[i])); err == nil {
			hours[i] = ts.Hour()
		}
	}
	return hours
}

// Filter returns the rows where mask is true
func (d *Dataset) Filter(mask []bool) (*Dataset, error) {
	if len(mask) != d.n {
		return nil, ErrMaskLengthMismatch
	}
	keep := 0
	for _, m := range mask {
		if m {
			keep++
		}
	}
	out := &Dataset{
		names:   slices.Clone(d.names),
		numeric: make(map[string][]float64, len(d.numeric)),
		text:    make(map[string][]string, len(d.text)),
		n:       keep,
	}
	for name, values := range d.numeric {
		sub := make([]float64, 0, keep)
		for i, v := range values {
			if mask[i] {
				sub = append(sub, v)
			}
		}
		out.numeric[name] = sub
	}
	for name, values := range d.text {
		sub := make([]string, 0, keep)
		for i, v := range values {
			if mask[i] {
				sub = append(sub, v)
			}
		}
		out.text[name] = sub
	}
	return out, nil
}

// Mask returns rows where a numeric column equals value.
// An absent column yields an all-false mask.
func (d *Dataset) Mask(name string, value float64) []bool {
	mask := make([]bool, d.n)
	values := d.numeric[name]
	for i := range mask {
		mask[i] = values != nil && values[i] == value
	}
	return mask
}

// Values returns the non-NaN values of a column on the rows selected by mask.
// A nil mask selects every row.
func (d *Dataset) Values(name string, mask []bool) []float64 {
	values := d.numeric[name]
	out := make([]float64, 0, len(values))
	for i, v := range values {
		if mask != nil && !mask[i] {
			continue
		}
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Salaries is shorthand for Values(ColSalary, mask)
func (d *Dataset) Salaries(mask []bool) []float64 {
	return d.Values(ColSalary, mask)
}

// Count returns the number of true entries of mask
func Count(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

// Not negates a mask
func Not(mask []bool) []bool {
	out := make([]bool, len(mask))
	for i, m := range mask {
		out[i] = !m
	}
	return out
}

// And combines masks of equal length
func And(masks ...[]bool) []bool {
	if len(masks) == 0 {
		return nil
	}
	out := slices.Clone(masks[0])
	for _, m := range masks[1:] {
		for i := range out {
			out[i] = out[i] && m[i]
		}
	}
	return out
}

// Or combines masks of equal length
func Or(masks ...[]bool) []bool {
	if len(masks) == 0 {
		return nil
	}
	out := slices.Clone(masks[0])
	for _, m := range masks[1:] {
		for i := range out {
			out[i] = out[i] || m[i]
		}
	}
	return out
}

// FormatFloat renders a value the way the cleaned CSV stores it
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
