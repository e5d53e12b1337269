package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarycli/internal/analysis"
	"salarycli/internal/charts"
	apierrors "salarycli/internal/errors"
	"salarycli/internal/ml"
	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

func requireStatus(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr), "expected an APIError, got %v", err)
	assert.Equal(t, status, apiErr.StatusCode)
	assert.Equal(t, code, apiErr.ErrorCode)
}

func TestSummary_Unfiltered(t *testing.T) {
	s := newTestDashboard(t)
	sum, err := s.Summary(context.Background(), analysis.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 120, sum.KPIs.Participants)
	assert.InDelta(t, 0, sum.KPIs.Delta, 1e-9)
	assert.InDelta(t, 80, sum.KPIs.MaleRatio, 1e-9)
	assert.Equal(t, sum.KPIs.AverageSalary, sum.KPIs.OverallAverage)

	titles := make([]string, len(sum.Insights))
	for i, in := range sum.Insights {
		titles[i] = in.Title
	}
	assert.Equal(t, []string{"Remote Work Premium", "European Premium", "Gender Gap"}, titles)
	assert.Greater(t, sum.Insights[0].Difference, 0.0)
	assert.Contains(t, sum.Insights[0].Text, "k TL more (p=")
}

func TestSummary_Filtered(t *testing.T) {
	s := newTestDashboard(t)
	d := testDataset(t)
	want := stats.Mean(d.Salaries(d.Mask(survey.ColSeniority, 1)))

	sum, err := s.Summary(context.Background(), analysis.Filter{Levels: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, 30, sum.KPIs.Participants)
	assert.InDelta(t, want, sum.KPIs.AverageSalary, 1e-9)
	assert.InDelta(t, want-stats.Mean(d.Salaries(nil)), sum.KPIs.Delta, 1e-9)
	assert.Equal(t, []int{1}, sum.Filter.Levels)
}

func TestView_NoMatch(t *testing.T) {
	s := newTestDashboard(t)
	_, err := s.Summary(context.Background(), analysis.Filter{Levels: []int{9}})
	requireStatus(t, err, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA")
	assert.ErrorIs(t, err, analysis.ErrNoRespondents)
}

func TestView_Cached(t *testing.T) {
	s := newTestDashboard(t)
	ctx := context.Background()
	a, err := s.View(ctx, analysis.Filter{WorkModes: []string{"Remote", "Office"}})
	require.NoError(t, err)
	b, err := s.View(ctx, analysis.Filter{WorkModes: []string{"Office", "Remote"}})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 80, a.Data.Len())
}

func TestView_CacheEviction(t *testing.T) {
	s := newTestDashboard(t)
	ctx := context.Background()
	base := []float64{1, 2, 3, 4}
	first, err := s.View(ctx, analysis.Filter{Experience: base})
	require.NoError(t, err)
	for i := range viewCacheSize {
		_, err := s.View(ctx, analysis.Filter{Experience: append(slices.Clone(base), float64(10+i))})
		require.NoError(t, err)
	}
	assert.Len(t, s.cache, viewCacheSize)
	again, err := s.View(ctx, analysis.Filter{Experience: base})
	require.NoError(t, err)
	assert.NotSame(t, first, again)
}

func TestView_NoDataset(t *testing.T) {
	s := NewDashboardService(nil, analysis.NewAnalyzer(quietLogger(), analysis.DefaultOptions()), nil, nil, quietLogger())
	_, err := s.View(context.Background(), analysis.Filter{})
	requireStatus(t, err, http.StatusServiceUnavailable, "DATA_UNAVAILABLE")
	assert.Equal(t, 0, s.Respondents())
	assert.Empty(t, s.FilterOptions().Levels)
}

func TestDistribution(t *testing.T) {
	s := newTestDashboard(t)
	dist, err := s.Distribution(context.Background(), analysis.Filter{})
	require.NoError(t, err)

	require.Len(t, dist.Bins, histogramBins)
	total := 0
	for _, b := range dist.Bins {
		total += b.Count
		assert.Less(t, b.Lower, b.Upper)
	}
	assert.Equal(t, 120, total)
	assert.Equal(t, dist.Salary.Min, dist.Bins[0].Lower)
	assert.Equal(t, dist.Salary.Max, dist.Bins[histogramBins-1].Upper)
	assert.Len(t, dist.Levels, 4)
}

func TestDistribution_SingleRespondent(t *testing.T) {
	logger := quietLogger()
	data := testDatasetWith(t, func(i int, record []string) {
		if i == 7 {
			record[3] = "9"
		}
	})
	s := NewDashboardService(data, analysis.NewAnalyzer(logger, analysis.DefaultOptions()), nil, nil, logger)

	dist, err := s.Distribution(context.Background(), analysis.Filter{Experience: []float64{9}})
	require.NoError(t, err)
	assert.Equal(t, 1, dist.Salary.Count)
	assert.Zero(t, dist.Salary.Std)
	for _, l := range dist.Levels {
		assert.False(t, math.IsNaN(l.Stats.Std), "level %d", l.Level)
	}

	_, err = json.Marshal(dist)
	assert.NoError(t, err)
}

func TestView_SharedComputationIgnoresCallerCancel(t *testing.T) {
	s := newTestDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := s.View(ctx, analysis.Filter{Levels: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, 30, v.Data.Len())

	again, err := s.View(context.Background(), analysis.Filter{Levels: []int{2}})
	require.NoError(t, err)
	assert.Same(t, v, again)
}

func TestHistogram(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		bins   int
		want   []int
	}{
		{"empty", nil, 3, nil},
		{"constant", []float64{5, 5, 5}, 2, []int{3, 0}},
		{"max in last bin", []float64{0, 1, 2, 3, 4}, 2, []int{2, 3}},
		{"unsorted", []float64{9, 1, 2}, 3, []int{2, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bins := histogram(tt.values, tt.bins)
			var got []int
			for _, b := range bins {
				got = append(got, b.Count)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCareerAndParticipation(t *testing.T) {
	s := newTestDashboard(t)
	ctx := context.Background()

	career, err := s.Career(ctx, analysis.Filter{})
	require.NoError(t, err)
	require.Len(t, career.Progression.Levels, 4)
	assert.Equal(t, "Junior", career.Progression.Levels[0].Label)
	assert.NotEmpty(t, career.Roles)

	part, err := s.Participation(ctx, analysis.Filter{})
	require.NoError(t, err)
	assert.NotEmpty(t, part.Hours)
}

func TestLocation(t *testing.T) {
	s := newTestDashboard(t)
	loc, err := s.Location(context.Background(), analysis.Filter{})
	require.NoError(t, err)

	require.Len(t, loc.WorkModes, 3)
	for i, label := range []string{"Remote", "Hybrid", "Office"} {
		assert.Equal(t, label, loc.WorkModes[i].Label)
		assert.Equal(t, 40, loc.WorkModes[i].N)
	}
	require.Len(t, loc.Locations, 2)
	assert.Equal(t, "Türkiye", loc.Locations[0].Label)
	assert.Equal(t, "Europe", loc.Locations[1].Label)
	assert.Equal(t, 30, loc.Locations[1].N)

	require.NotNil(t, loc.RemotePremiumPct)
	assert.Greater(t, *loc.RemotePremiumPct, 0.0)
	require.NotNil(t, loc.EuropePremiumPct)
	assert.Greater(t, *loc.EuropePremiumPct, 0.0)
	assert.Equal(t, survey.LocationNote, loc.Note)
}

func TestROIAndTests(t *testing.T) {
	s := newTestDashboard(t)
	ctx := context.Background()

	roi, err := s.ROI(ctx, analysis.Filter{})
	require.NoError(t, err)
	assert.InDelta(t, analysis.DefaultOptions().ROIThreshold*100, roi.Threshold, 1e-9)
	require.NotEmpty(t, roi.Programming)
	for _, row := range roi.Programming {
		assert.Equal(t, "programming", row.Category)
	}
	for _, row := range roi.Frontend {
		assert.Equal(t, "frontend", row.Category)
	}

	tests, err := s.Tests(ctx, analysis.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0.05, tests.Alpha)
	_, ok := analysis.FindTest(tests.Tests, "Remote vs Office")
	assert.True(t, ok)

	gender, err := s.Gender(ctx, analysis.Filter{})
	require.NoError(t, err)
	assert.InDelta(t, 20, gender.FemalePct, 1e-9)
	require.NotNil(t, gender.Test)
	assert.Equal(t, "Gender Gap", gender.Test.Name)
}

func TestChart(t *testing.T) {
	s := newTestDashboard(t)
	ctx := context.Background()

	png, err := s.Chart(ctx, "salary_histogram", analysis.Filter{Genders: []float64{survey.GenderMale}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = s.Chart(ctx, "pie_chart", analysis.Filter{})
	requireStatus(t, err, http.StatusNotFound, "NOT_FOUND")
	assert.ErrorIs(t, err, charts.ErrUnknownChart)

	_, err = s.Chart(ctx, "barplot_model_comparison", analysis.Filter{})
	requireStatus(t, err, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA")
}

func TestModelsFor(t *testing.T) {
	s := newTestDashboard(t)
	s.models = &ml.Results{Best: ml.ModelForest, Clusters: &ml.ClusterResult{}}

	assert.Same(t, s.models, s.modelsFor(analysis.Filter{}))
	filtered := s.modelsFor(analysis.Filter{Levels: []int{2}})
	assert.Nil(t, filtered.Clusters)
	assert.Equal(t, ml.ModelForest, filtered.Best)
	assert.NotNil(t, s.models.Clusters)
}

func TestFilterOptions(t *testing.T) {
	opts := newTestDashboard(t).FilterOptions()

	levels := make([]string, len(opts.Levels))
	for i, o := range opts.Levels {
		levels[i] = o.Value + "=" + o.Label
	}
	assert.Equal(t, []string{"1=Junior", "2=Mid", "3=Senior", "4=Staff Engineer"}, levels)
	assert.Len(t, opts.Experience, 6)
	assert.Equal(t, []Option{{"Remote", "Remote"}, {"Office", "Office"}, {"Hybrid", "Hybrid"}}, opts.WorkModes)
	assert.Equal(t, []Option{{"0", "Male"}, {"1", "Female"}}, opts.Genders)
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{analysis.ErrNoRespondents, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrap: %w", stats.ErrInsufficientData), http.StatusUnprocessableEntity},
		{charts.ErrUnknownChart, http.StatusNotFound},
		{ml.ErrModelNotFound, http.StatusServiceUnavailable},
		{ErrDatasetNotLoaded, http.StatusServiceUnavailable},
		{ml.ErrUnknownModel, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			err := toAPIError(tt.err)
			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, toAPIError(nil))
	assert.Equal(t, context.Canceled, toAPIError(context.Canceled))
	assert.Same(t, apierrors.ErrNotFound, toAPIError(apierrors.ErrNotFound))
}
