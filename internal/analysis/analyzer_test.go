package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

func TestKeyStatistics(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	k := testAnalyzer().KeyStatistics(d)

	assert.Equal(t, 60, k.Participants)
	assert.InDelta(t, 94.5333333, k.SalaryMean, 1e-6)
	assert.InDelta(t, 80.0, k.MalePct, 1e-9)
	assert.InDelta(t, 20.0, k.FemalePct, 1e-9)
	assert.InDelta(t, 10.0, k.ManagerPct, 1e-9)
	assert.LessOrEqual(t, k.SalaryMin, k.SalaryMedian)
	assert.LessOrEqual(t, k.SalaryMedian, k.SalaryMax)
}

func TestHypothesisTests(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	tests := testAnalyzer().HypothesisTests(context.Background(), d)
	require.Len(t, tests, 4)

	cases := []struct {
		name        string
		na, nb      int
		meanDiff    float64
		significant bool
	}{
		{"React Usage", 30, 30, 18.7333333, true},
		{"Remote vs Office", 20, 20, 6.4, false},
		{"Europe vs Türkiye", 20, 40, 29.95, true},
		{"Gender Gap", 48, 12, -0.375, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := FindTest(tests, tc.name)
			require.True(t, ok)
			assert.Equal(t, tc.na, res.NA)
			assert.Equal(t, tc.nb, res.NB)
			assert.InDelta(t, tc.meanDiff, res.MeanDiff, 1e-6)
			assert.Equal(t, tc.significant, res.Significant)
			assert.Less(t, res.CI.Lower, res.CI.Upper)
			assert.NotEmpty(t, res.Interpretation)
		})
	}

	react, _ := FindTest(tests, "React Usage")
	assert.InDelta(t, 0.000347590, react.P, 1e-6)

	gender, _ := FindTest(tests, "Gender Gap")
	require.NotNil(t, gender.GapPct)
	assert.InDelta(t, gender.MeanDiff/gender.MeanB*100, *gender.GapPct, 1e-9)
	assert.Nil(t, react.GapPct)
}

func TestHypothesisTests_SmallGroupsSkipped(t *testing.T) {
	d := syntheticDataset(t, 12)
	assert.Empty(t, testAnalyzer().HypothesisTests(context.Background(), d))
}

func TestGroupComparisons(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	comparisons := testAnalyzer().GroupComparisons(context.Background(), d)
	require.Len(t, comparisons, 3)

	byName := make(map[string]GroupComparison)
	for _, c := range comparisons {
		byName[c.Name] = c
	}

	mode := byName["Work Mode"]
	assert.Len(t, mode.Groups, 3)
	assert.Len(t, mode.PostHoc, 3)

	location := byName["Company Location"]
	assert.Len(t, location.Groups, 2)
	assert.True(t, location.Significant)

	seniority := byName["Seniority Level"]
	require.Len(t, seniority.Groups, 4)
	assert.Equal(t, "Junior", seniority.Groups[0].Label)
	assert.Len(t, seniority.PostHoc, 6)
	assert.Greater(t, seniority.ANOVA.EtaSquared, 0.0)
}

func TestCorrelations(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	corr := testAnalyzer().Correlations(context.Background(), d)
	require.Len(t, corr, 2)

	for _, c := range corr {
		assert.Greater(t, c.Pearson.R, 0.0, c.Name)
		assert.Equal(t, 60, c.Pearson.N)
		assert.Equal(t, stats.InterpretCorrelation(c.Pearson.R), c.Interpretation)
	}
}

func TestTechnologyROI(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	rows := testAnalyzer().TechnologyROI(d)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"React", "Python", "Go"}, []string{rows[0].Technology, rows[1].Technology, rows[2].Technology})
	assert.InDelta(t, 18.7333333, rows[0].ROI, 1e-6)
	assert.Equal(t, "frontend", rows[0].Category)
	assert.True(t, rows[0].Significant)
	assert.InDelta(t, rows[0].ROI/rows[0].NonUserMean*100, rows[0].ROIPct, 1e-9)

	for _, r := range rows {
		assert.False(t, survey.ExcludedTechnologyColumns[r.Column])
	}
	assert.Len(t, FilterCategory(rows, "programming"), 2)
}

func TestSignificantROI(t *testing.T) {
	rows := []TechnologyROI{
		{Technology: "A", ROI: 10, UserMean: 100},
		{Technology: "B", ROI: 5, UserMean: 100},
		{Technology: "C", ROI: -20, UserMean: 100},
	}
	got := SignificantROI(rows, 0.05)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Technology)
	assert.Equal(t, "C", got[1].Technology)
}

func TestRoleSalaries(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	roles := testAnalyzer().RoleSalaries(d)
	require.Len(t, roles, 2)
	for _, r := range roles {
		assert.Equal(t, 30, r.Count)
		assert.NotEqual(t, "Data Scientist", r.Role)
	}
	assert.GreaterOrEqual(t, roles[0].Mean, roles[1].Mean)
}

func TestCareerProgression(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	cp := testAnalyzer().CareerProgression(d)

	require.Len(t, cp.Levels, 4)
	assert.Equal(t, "Junior", cp.Levels[0].Label)
	assert.Equal(t, 15, cp.Levels[0].Stats.Count)
	assert.InDelta(t, 78.7333333, cp.Levels[0].Stats.Mean, 1e-6)

	require.Len(t, cp.Transitions, 3)
	assert.Equal(t, "Mid", cp.Transitions[0].To)
	assert.InDelta(t, 7.2, cp.Transitions[0].Increase, 1e-6)
	assert.InDelta(t, 17.2, cp.Transitions[1].Increase, 1e-6)
	assert.InDelta(t, 7.2/78.7333333*100, cp.Transitions[0].IncreasePct, 1e-4)
	require.NotNil(t, cp.ANOVA)
}

func TestSankeyFlows(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	flows := SankeyFlows(d)

	total := 0
	for _, f := range flows {
		assert.Positive(t, f.Value)
		total += f.Value
	}
	// every respondent has one of the two developer roles, four are also data scientists
	assert.Equal(t, 64, total)
}

func TestHourlyParticipation(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	hp := testAnalyzer().HourlyParticipation(d)

	require.Len(t, hp.Hours, 12)
	assert.Equal(t, 9, hp.Hours[0].Hour)
	assert.Equal(t, 5, hp.Hours[0].Count)

	require.Len(t, hp.Buckets, 4)
	assert.Equal(t, 0, hp.Buckets[0].N)
	assert.Equal(t, 20, hp.Buckets[1].N)
	assert.InDelta(t, 114.5, hp.Buckets[1].Mean, 1e-9)
	assert.Equal(t, 30, hp.Buckets[2].N)
	assert.Equal(t, 10, hp.Buckets[3].N)
	require.NotNil(t, hp.BucketANOVA)
	assert.Equal(t, 2, hp.BucketANOVA.DFBetween)

	assert.Len(t, hp.Associations, 3)
	assert.Len(t, hp.RoleShare.Roles, 3)
	assert.Equal(t, hp.RoleShare.Hours, []int{9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20})
	for _, row := range hp.RoleShare.Share {
		assert.Len(t, row, 12)
	}
}

func TestInteraction(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	in := testAnalyzer().Interaction(d)

	assert.Len(t, in.Cells, 6)
	n := 0
	for _, c := range in.Cells {
		n += c.N
	}
	assert.Equal(t, 60, n)
	assert.NotNil(t, in.WorkModeEffect)
	require.NotNil(t, in.LocationEffect)
	assert.Less(t, in.LocationEffect.P, 0.05)
}

func TestGenderTechnologyUsage(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	usage := testAnalyzer().GenderTechnologyUsage(d)

	require.Len(t, usage.Languages, 2)
	assert.Equal(t, "Python", usage.Languages[0].Technology)
	assert.InDelta(t, 50.0, usage.Languages[0].OverallPct, 1e-9)
	require.Len(t, usage.Frontend, 1)
	assert.Equal(t, "React", usage.Frontend[0].Technology)
}

func TestTechnologyCorrelations(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	corr := testAnalyzer().TechnologyCorrelations(d)
	require.Len(t, corr, 3)
	assert.Equal(t, "React", corr[0].Technology)
	assert.GreaterOrEqual(t, corr[0].R, corr[1].R)
	assert.GreaterOrEqual(t, corr[1].R, corr[2].R)
}

func TestRun(t *testing.T) {
	d := syntheticDataset(t, syntheticRows)
	res, err := testAnalyzer().Run(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, 60, res.Key.Participants)
	assert.Len(t, res.Tests, 4)
	assert.NotEmpty(t, res.Sankey)
	assert.Equal(t, 0.05, res.Alpha)

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	a := testAnalyzer()

	_, err := a.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRespondents)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Run(ctx, syntheticDataset(t, syntheticRows))
	assert.ErrorIs(t, err, context.Canceled)
}
