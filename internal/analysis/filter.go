package analysis

import (
	"salarycli/internal/survey"
)

// Filter narrows the dataset the dashboard shows.
// An empty field places no restriction on that dimension.
type Filter struct {
	Experience []float64 `json:"experience,omitempty"`
	Levels     []int     `json:"levels,omitempty"`
	// WorkModes holds work mode suffixes such as "Remote"; a row matches any of them
	WorkModes []string  `json:"work_modes,omitempty"`
	Genders   []float64 `json:"genders,omitempty"`
}

// Empty reports whether the filter selects every row
func (f Filter) Empty() bool {
	return len(f.Experience) == 0 && len(f.Levels) == 0 && len(f.WorkModes) == 0 && len(f.Genders) == 0
}

// Mask returns the rows of d that pass the filter
func (f Filter) Mask(d *survey.Dataset) []bool {
	mask := make([]bool, d.Len())
	for i := range mask {
		mask[i] = true
	}
	if f.Empty() {
		return mask
	}

	if len(f.Experience) > 0 {
		mask = survey.And(mask, anyValue(d, survey.ColExperience, f.Experience))
	}
	if len(f.Levels) > 0 {
		levels := make([]float64, len(f.Levels))
		for i, l := range f.Levels {
			levels[i] = float64(l)
		}
		mask = survey.And(mask, anyValue(d, survey.ColSeniority, levels))
	}
	if len(f.WorkModes) > 0 {
		var modes [][]bool
		for _, m := range f.WorkModes {
			modes = append(modes, d.Mask(survey.PrefixWorkMode+m, 1))
		}
		mask = survey.And(mask, survey.Or(modes...))
	}
	if len(f.Genders) > 0 {
		mask = survey.And(mask, anyValue(d, survey.ColGender, f.Genders))
	}
	return mask
}

// Apply returns the filtered view of d, or ErrNoRespondents when nothing matches
func (f Filter) Apply(d *survey.Dataset) (*survey.Dataset, error) {
	if f.Empty() {
		return d, nil
	}
	mask := f.Mask(d)
	if survey.Count(mask) == 0 {
		return nil, ErrNoRespondents
	}
	return d.Filter(mask)
}

func anyValue(d *survey.Dataset, column string, values []float64) []bool {
	masks := make([][]bool, len(values))
	for i, v := range values {
		masks[i] = d.Mask(column, v)
	}
	return survey.Or(masks...)
}
