package analysis

import (
	"cmp"
	"slices"

	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

// HourStat is the response volume and mean salary of one submission hour
type HourStat struct {
	Hour       int     `json:"hour"`
	Count      int     `json:"count"`
	MeanSalary float64 `json:"mean_salary"`
}

// Association is a chi-square test between the hour bucket and a category
type Association struct {
	Name        string                `json:"name"`
	Result      stats.ChiSquareResult `json:"result"`
	Significant bool                  `json:"significant"`
}

// RoleHourShare is the share of each role among the respondents of each hour
type RoleHourShare struct {
	Roles []string    `json:"roles"`
	Hours []int       `json:"hours"`
	Share [][]float64 `json:"share"`
}

// HourlyParticipation relates submission time to salary and demographics
type HourlyParticipation struct {
	Hours        []HourStat         `json:"hours"`
	Buckets      []GroupStat        `json:"buckets"`
	BucketANOVA  *stats.ANOVAResult `json:"bucket_anova,omitempty"`
	Associations []Association      `json:"associations"`
	RoleShare    RoleHourShare      `json:"role_share"`
}

// HourlyParticipation groups respondents by the hour they answered
func (a *Analyzer) HourlyParticipation(d *survey.Dataset) HourlyParticipation {
	var hp HourlyParticipation
	hours := d.Hours()
	salary := d.Float(survey.ColSalary)

	var active []int
	for h := 0; h < 24; h++ {
		mask := hourMask(hours, func(x int) bool { return x == h })
		if survey.Count(mask) == 0 {
			continue
		}
		active = append(active, h)
		values := d.Salaries(mask)
		hs := HourStat{Hour: h, Count: survey.Count(mask)}
		if len(values) > 0 {
			hs.MeanSalary = stats.Mean(values)
		}
		hp.Hours = append(hp.Hours, hs)
	}
	if salary == nil || len(active) == 0 {
		return hp
	}

	buckets := survey.HourBuckets()
	bucketMasks := make([][]bool, len(buckets))
	var groups [][]float64
	for i, b := range buckets {
		bucketMasks[i] = hourMask(hours, func(x int) bool { return survey.HourBucket(x) == b })
		values := d.Salaries(bucketMasks[i])
		hp.Buckets = append(hp.Buckets, groupStat(b, values))
		if len(values) >= 2 {
			groups = append(groups, values)
		}
	}
	if res, err := stats.OneWayANOVA(groups...); err == nil {
		hp.BucketANOVA = &res
	}

	categories := []struct {
		name  string
		masks [][]bool
	}{
		{"Hour x Gender", [][]bool{d.Mask(survey.ColGender, survey.GenderMale), d.Mask(survey.ColGender, survey.GenderFemale)}},
		{"Hour x Seniority", levelMasks(d)},
		{"Hour x Work Mode", prefixMasks(d, survey.PrefixWorkMode)},
	}
	for _, c := range categories {
		table := crossTab(bucketMasks, c.masks)
		res, err := stats.ChiSquareContingency(table)
		if err != nil {
			continue
		}
		hp.Associations = append(hp.Associations, Association{
			Name:        c.name,
			Result:      res,
			Significant: res.P < a.opts.Alpha,
		})
	}

	hp.RoleShare = a.roleHourShare(d, hours, active)
	return hp
}

func (a *Analyzer) roleHourShare(d *survey.Dataset, hours []int, active []int) RoleHourShare {
	type roleCount struct {
		col   string
		count int
	}
	var roles []roleCount
	for _, col := range d.ColumnsWithPrefix(survey.PrefixRole) {
		roles = append(roles, roleCount{col, survey.Count(d.Mask(col, 1))})
	}
	slices.SortStableFunc(roles, func(x, y roleCount) int { return cmp.Compare(y.count, x.count) })
	if len(roles) > a.opts.HeatmapRoles {
		roles = roles[:a.opts.HeatmapRoles]
	}

	share := RoleHourShare{Hours: active}
	hourMasks := make([][]bool, len(active))
	for j, h := range active {
		hourMasks[j] = hourMask(hours, func(x int) bool { return x == h })
	}
	for _, r := range roles {
		share.Roles = append(share.Roles, survey.DisplayLabel(r.col, survey.PrefixRole))
		roleMask := d.Mask(r.col, 1)
		row := make([]float64, len(active))
		for j := range active {
			row[j] = pct(survey.Count(survey.And(roleMask, hourMasks[j])), survey.Count(hourMasks[j]))
		}
		share.Share = append(share.Share, row)
	}
	return share
}

func hourMask(hours []int, match func(int) bool) []bool {
	mask := make([]bool, len(hours))
	for i, h := range hours {
		mask[i] = h >= 0 && match(h)
	}
	return mask
}

func levelMasks(d *survey.Dataset) [][]bool {
	var out [][]bool
	for _, level := range survey.CareerLevels() {
		out = append(out, d.Mask(survey.ColSeniority, float64(level)))
	}
	return out
}

func prefixMasks(d *survey.Dataset, prefix string) [][]bool {
	var out [][]bool
	for _, col := range d.ColumnsWithPrefix(prefix) {
		out = append(out, d.Mask(col, 1))
	}
	return out
}

// crossTab counts rows selected by each pair of row and column masks
func crossTab(rows, cols [][]bool) [][]float64 {
	table := make([][]float64, len(rows))
	for i, r := range rows {
		table[i] = make([]float64, len(cols))
		for j, c := range cols {
			table[i][j] = float64(survey.Count(survey.And(r, c)))
		}
	}
	return table
}

// InteractionCell is one work mode x company location combination
type InteractionCell struct {
	WorkMode string  `json:"work_mode"`
	Location string  `json:"location"`
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
}

// Interaction is the two-factor view of work mode and company location
type Interaction struct {
	Cells          []InteractionCell  `json:"cells"`
	WorkModeEffect *stats.ANOVAResult `json:"work_mode_effect,omitempty"`
	LocationEffect *stats.ANOVAResult `json:"location_effect,omitempty"`
	CellEffect     *stats.ANOVAResult `json:"cell_effect,omitempty"`
}

// Interaction tabulates salaries by work mode and company location, with the
// main effect of each factor and an ANOVA across cells larger than MinCellSize
func (a *Analyzer) Interaction(d *survey.Dataset) Interaction {
	var in Interaction
	modes := d.ColumnsWithPrefix(survey.PrefixWorkMode)
	locations := d.ColumnsWithPrefix(survey.PrefixCompanyLocation)

	var cellGroups [][]float64
	for _, m := range modes {
		modeMask := d.Mask(m, 1)
		for _, l := range locations {
			values := d.Salaries(survey.And(modeMask, d.Mask(l, 1)))
			if len(values) == 0 {
				continue
			}
			in.Cells = append(in.Cells, InteractionCell{
				WorkMode: survey.DisplayLabel(m, survey.PrefixWorkMode),
				Location: survey.DisplayLabel(l, survey.PrefixCompanyLocation),
				N:        len(values),
				Mean:     stats.Mean(values),
				Std:      stdOrZero(values),
			})
			if len(values) > a.opts.MinCellSize {
				cellGroups = append(cellGroups, values)
			}
		}
	}

	effect := func(prefix string) *stats.ANOVAResult {
		_, groups := oneHotGroups(d, prefix)
		_, groups = keepGroups(make([]string, len(groups)), groups, 2)
		res, err := stats.OneWayANOVA(groups...)
		if err != nil {
			return nil
		}
		return &res
	}
	in.WorkModeEffect = effect(survey.PrefixWorkMode)
	in.LocationEffect = effect(survey.PrefixCompanyLocation)
	if res, err := stats.OneWayANOVA(cellGroups...); err == nil {
		in.CellEffect = &res
	}
	return in
}
