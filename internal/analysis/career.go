package analysis

import (
	"cmp"
	"slices"

	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

// RoleSalary is the average salary of respondents in one role
type RoleSalary struct {
	Role   string  `json:"role"`
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_salary"`
}

// RoleSalaries ranks roles with at least MinRoleCount respondents by mean
// salary and keeps the top TopRoles
func (a *Analyzer) RoleSalaries(d *survey.Dataset) []RoleSalary {
	var out []RoleSalary
	for _, col := range d.ColumnsWithPrefix(survey.PrefixRole) {
		salaries := d.Salaries(d.Mask(col, 1))
		if len(salaries) < a.opts.MinRoleCount {
			continue
		}
		out = append(out, RoleSalary{
			Role:   survey.DisplayLabel(col, survey.PrefixRole),
			Column: col,
			Count:  len(salaries),
			Mean:   stats.Mean(salaries),
		})
	}
	slices.SortStableFunc(out, func(x, y RoleSalary) int { return cmp.Compare(y.Mean, x.Mean) })
	if len(out) > a.opts.TopRoles {
		out = out[:a.opts.TopRoles]
	}
	return out
}

// LevelStat describes the salaries of one seniority level
type LevelStat struct {
	Level int           `json:"level"`
	Label string        `json:"label"`
	Stats stats.Summary `json:"stats"`
}

// Transition is the salary step between two consecutive IC levels
type Transition struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Increase    float64 `json:"increase"`
	IncreasePct float64 `json:"increase_pct"`
}

// CareerProgression describes salaries along the seniority ladder
type CareerProgression struct {
	Levels      []LevelStat        `json:"levels"`
	Transitions []Transition       `json:"transitions"`
	ANOVA       *stats.ANOVAResult `json:"anova,omitempty"`
}

// CareerProgression summarises each seniority level with at least two
// respondents, the steps between consecutive IC levels and an ANOVA across levels
func (a *Analyzer) CareerProgression(d *survey.Dataset) CareerProgression {
	var cp CareerProgression
	var groups [][]float64
	byLevel := make(map[int]LevelStat)
	for _, level := range survey.CareerLevels() {
		salaries := d.Salaries(d.Mask(survey.ColSeniority, float64(level)))
		if len(salaries) < 2 {
			continue
		}
		ls := LevelStat{Level: level, Label: survey.CareerLevelLabel(level), Stats: stats.Describe(salaries)}
		cp.Levels = append(cp.Levels, ls)
		byLevel[level] = ls
		groups = append(groups, salaries)
	}

	for _, level := range survey.CareerLevels()[1:] {
		from, okFrom := byLevel[level]
		to, okTo := byLevel[level+1]
		if !okFrom || !okTo {
			continue
		}
		t := Transition{From: from.Label, To: to.Label, Increase: to.Stats.Mean - from.Stats.Mean}
		if from.Stats.Mean != 0 {
			t.IncreasePct = t.Increase / from.Stats.Mean * 100
		}
		cp.Transitions = append(cp.Transitions, t)
	}

	if res, err := stats.OneWayANOVA(groups...); err == nil {
		cp.ANOVA = &res
	}
	return cp
}

// Flow is one link of the level -> role Sankey diagram
type Flow struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
}

// SankeyFlows counts respondents for every seniority level and role pair
func SankeyFlows(d *survey.Dataset) []Flow {
	roles := d.ColumnsWithPrefix(survey.PrefixRole)
	var out []Flow
	for _, level := range survey.CareerLevels() {
		atLevel := d.Mask(survey.ColSeniority, float64(level))
		if survey.Count(atLevel) == 0 {
			continue
		}
		for _, col := range roles {
			n := survey.Count(survey.And(atLevel, d.Mask(col, 1)))
			if n == 0 {
				continue
			}
			out = append(out, Flow{
				Source: survey.CareerLevelLabel(level),
				Target: survey.DisplayLabel(col, survey.PrefixRole),
				Value:  n,
			})
		}
	}
	return out
}
