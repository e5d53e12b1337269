package analysis

import (
	"context"
	"errors"
	"log/slog"

	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

// KeyStats are the headline numbers of the survey
type KeyStats struct {
	Participants int     `json:"participants"`
	SalaryMean   float64 `json:"salary_mean"`
	SalaryMedian float64 `json:"salary_median"`
	SalaryStd    float64 `json:"salary_std"`
	SalaryMin    float64 `json:"salary_min"`
	SalaryMax    float64 `json:"salary_max"`
	MalePct      float64 `json:"male_pct"`
	FemalePct    float64 `json:"female_pct"`
	ManagerPct   float64 `json:"manager_pct"`
}

// KeyStatistics summarises salaries and the demographic split.
// An empty dataset yields zero values.
func (a *Analyzer) KeyStatistics(d *survey.Dataset) KeyStats {
	n := d.Len()
	k := KeyStats{
		Participants: n,
		MalePct:      pct(survey.Count(d.Mask(survey.ColGender, survey.GenderMale)), n),
		FemalePct:    pct(survey.Count(d.Mask(survey.ColGender, survey.GenderFemale)), n),
		ManagerPct:   pct(survey.Count(d.Mask(survey.ColManager, 1)), n),
	}
	salaries := d.Salaries(nil)
	if len(salaries) == 0 {
		return k
	}
	s := stats.Describe(salaries)
	k.SalaryMean, k.SalaryMedian = s.Mean, s.Median
	k.SalaryMin, k.SalaryMax = s.Min, s.Max
	k.SalaryStd = stdOrZero(salaries)
	return k
}

// TwoGroupTest is a Welch t-test between two respondent groups
type TwoGroupTest struct {
	Name           string         `json:"name"`
	GroupA         string         `json:"group_a"`
	GroupB         string         `json:"group_b"`
	NA             int            `json:"n_a"`
	NB             int            `json:"n_b"`
	MeanA          float64        `json:"mean_a"`
	MeanB          float64        `json:"mean_b"`
	StdA           float64        `json:"std_a"`
	StdB           float64        `json:"std_b"`
	MeanDiff       float64        `json:"mean_diff"`
	T              float64        `json:"t_statistic"`
	DF             float64        `json:"df"`
	P              float64        `json:"p_value"`
	CohensD        float64        `json:"cohens_d"`
	CI             stats.Interval `json:"ci"`
	Significant    bool           `json:"significant"`
	Interpretation string         `json:"interpretation"`
	GapPct         *float64       `json:"gap_pct,omitempty"`
}

type groupDefinition struct {
	name           string
	labelA, labelB string
	maskA, maskB   func(d *survey.Dataset) []bool
}

var hypothesisTests = []groupDefinition{
	{
		name:   "React Usage",
		labelA: "React users", labelB: "Non-users",
		maskA: func(d *survey.Dataset) []bool { return d.Mask(survey.ColReact, 1) },
		maskB: func(d *survey.Dataset) []bool { return d.Mask(survey.ColReact, 0) },
	},
	{
		name:   "Remote vs Office",
		labelA: "Remote", labelB: "Office",
		maskA: func(d *survey.Dataset) []bool { return d.Mask(survey.ColRemote, 1) },
		maskB: func(d *survey.Dataset) []bool { return d.Mask(survey.ColOffice, 1) },
	},
	{
		name:   "Europe vs Türkiye",
		labelA: "Europe", labelB: "Türkiye",
		maskA: func(d *survey.Dataset) []bool { return d.Mask(survey.ColEurope, 1) },
		maskB: func(d *survey.Dataset) []bool { return d.Mask(survey.ColTurkey, 1) },
	},
	{
		name:   "Gender Gap",
		labelA: "Male", labelB: "Female",
		maskA: func(d *survey.Dataset) []bool { return d.Mask(survey.ColGender, survey.GenderMale) },
		maskB: func(d *survey.Dataset) []bool { return d.Mask(survey.ColGender, survey.GenderFemale) },
	},
}

// HypothesisTests runs the four two-group comparisons. A test is skipped when
// either group has MinGroupSize respondents or fewer.
func (a *Analyzer) HypothesisTests(ctx context.Context, d *survey.Dataset) []TwoGroupTest {
	var out []TwoGroupTest
	for _, def := range hypothesisTests {
		groupA, groupB := d.Salaries(def.maskA(d)), d.Salaries(def.maskB(d))
		if len(groupA) <= a.opts.MinGroupSize || len(groupB) <= a.opts.MinGroupSize {
			a.logger.InfoContext(ctx, "skipping test, groups too small",
				slog.String("test", def.name),
				slog.Int("n_a", len(groupA)),
				slog.Int("n_b", len(groupB)))
			continue
		}
		res, err := a.compareGroups(def.name, def.labelA, def.labelB, groupA, groupB)
		if err != nil {
			a.logger.WarnContext(ctx, "test undefined",
				slog.String("test", def.name),
				slog.String("error", err.Error()))
			continue
		}
		if def.name == "Gender Gap" && res.MeanB != 0 {
			gap := res.MeanDiff / res.MeanB * 100
			res.GapPct = &gap
		}
		out = append(out, res)
	}
	return out
}

// FindTest returns the named test from a result set
func FindTest(tests []TwoGroupTest, name string) (TwoGroupTest, bool) {
	for _, t := range tests {
		if t.Name == name {
			return t, true
		}
	}
	return TwoGroupTest{}, false
}

func (a *Analyzer) compareGroups(name, labelA, labelB string, groupA, groupB []float64) (TwoGroupTest, error) {
	welch, err := stats.WelchTTest(groupA, groupB)
	if err != nil {
		return TwoGroupTest{}, err
	}
	d, err := stats.CohensD(groupA, groupB)
	if err != nil {
		return TwoGroupTest{}, err
	}
	ci, err := stats.MeanDiffCI(groupA, groupB, a.opts.ConfidenceZ)
	if err != nil {
		return TwoGroupTest{}, err
	}
	meanA, meanB := stats.Mean(groupA), stats.Mean(groupB)
	return TwoGroupTest{
		Name:           name,
		GroupA:         labelA,
		GroupB:         labelB,
		NA:             len(groupA),
		NB:             len(groupB),
		MeanA:          meanA,
		MeanB:          meanB,
		StdA:           stats.StdDev(groupA),
		StdB:           stats.StdDev(groupB),
		MeanDiff:       meanA - meanB,
		T:              welch.T,
		DF:             welch.DF,
		P:              welch.P,
		CohensD:        d,
		CI:             ci,
		Significant:    welch.P < a.opts.Alpha,
		Interpretation: stats.InterpretCohensD(d),
	}, nil
}

// GroupComparison is a one-way ANOVA across the levels of a factor
type GroupComparison struct {
	Name           string                 `json:"name"`
	Groups         []GroupStat            `json:"groups"`
	ANOVA          stats.ANOVAResult      `json:"anova"`
	Significant    bool                   `json:"significant"`
	Interpretation string                 `json:"interpretation"`
	PostHoc        []stats.PairwiseResult `json:"post_hoc"`
}

// GroupComparisons compares salaries across work modes, company locations and
// seniority levels. Groups need at least two respondents.
func (a *Analyzer) GroupComparisons(ctx context.Context, d *survey.Dataset) []GroupComparison {
	factors := []struct {
		name   string
		groups func() ([]string, [][]float64)
	}{
		{"Work Mode", func() ([]string, [][]float64) { return oneHotGroups(d, survey.PrefixWorkMode) }},
		{"Company Location", func() ([]string, [][]float64) { return oneHotGroups(d, survey.PrefixCompanyLocation) }},
		{"Seniority Level", func() ([]string, [][]float64) { return levelGroups(d) }},
	}

	var out []GroupComparison
	for _, f := range factors {
		labels, groups := f.groups()
		labels, groups = keepGroups(labels, groups, 2)
		cmp, err := a.anova(f.name, labels, groups)
		if err != nil {
			a.logger.WarnContext(ctx, "comparison undefined",
				slog.String("factor", f.name),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, cmp)
	}
	return out
}

func (a *Analyzer) anova(name string, labels []string, groups [][]float64) (GroupComparison, error) {
	res, err := stats.OneWayANOVA(groups...)
	if err != nil {
		return GroupComparison{}, err
	}
	postHoc, err := stats.PairwiseWelch(groups, labels, a.opts.Alpha)
	if err != nil {
		return GroupComparison{}, err
	}
	cmp := GroupComparison{
		Name:           name,
		ANOVA:          res,
		Significant:    res.P < a.opts.Alpha,
		Interpretation: stats.InterpretEtaSquared(res.EtaSquared),
		PostHoc:        postHoc,
	}
	for i, g := range groups {
		cmp.Groups = append(cmp.Groups, groupStat(labels[i], g))
	}
	return cmp, nil
}

// oneHotGroups collects the salaries of each indicator column under prefix
func oneHotGroups(d *survey.Dataset, prefix string) ([]string, [][]float64) {
	var labels []string
	var groups [][]float64
	for _, col := range d.ColumnsWithPrefix(prefix) {
		labels = append(labels, survey.DisplayLabel(col, prefix))
		groups = append(groups, d.Salaries(d.Mask(col, 1)))
	}
	return labels, groups
}

// levelGroups collects salaries per seniority code in ascending order
func levelGroups(d *survey.Dataset) ([]string, [][]float64) {
	var labels []string
	var groups [][]float64
	for _, level := range survey.CareerLevels() {
		labels = append(labels, survey.CareerLevelLabel(level))
		groups = append(groups, d.Salaries(d.Mask(survey.ColSeniority, float64(level))))
	}
	return labels, groups
}

func keepGroups(labels []string, groups [][]float64, min int) ([]string, [][]float64) {
	var keptLabels []string
	var kept [][]float64
	for i, g := range groups {
		if len(g) >= min {
			keptLabels = append(keptLabels, labels[i])
			kept = append(kept, g)
		}
	}
	return keptLabels, kept
}

// CorrelationTest pairs the Pearson and Spearman coefficients of a variable with salary
type CorrelationTest struct {
	Name           string                  `json:"name"`
	Variable       string                  `json:"variable"`
	Pearson        stats.CorrelationResult `json:"pearson"`
	Spearman       stats.CorrelationResult `json:"spearman"`
	Significant    bool                    `json:"significant"`
	Interpretation string                  `json:"interpretation"`
}

// Correlations relates experience and seniority to salary
func (a *Analyzer) Correlations(ctx context.Context, d *survey.Dataset) []CorrelationTest {
	vars := []struct{ name, column string }{
		{"Experience vs Salary", survey.ColExperience},
		{"Seniority vs Salary", survey.ColSeniority},
	}
	var out []CorrelationTest
	for _, v := range vars {
		x, y := d.Float(v.column), d.Float(survey.ColSalary)
		if x == nil || y == nil {
			continue
		}
		p, errP := stats.Pearson(x, y)
		s, errS := stats.Spearman(x, y)
		if err := errors.Join(errP, errS); err != nil {
			a.logger.WarnContext(ctx, "correlation undefined",
				slog.String("variable", v.column),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, CorrelationTest{
			Name:           v.name,
			Variable:       v.column,
			Pearson:        p,
			Spearman:       s,
			Significant:    p.P < a.opts.Alpha,
			Interpretation: stats.InterpretCorrelation(p.R),
		})
	}
	return out
}
