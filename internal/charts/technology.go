package charts

import (
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"salarycli/internal/analysis"
)

const (
	maxROIBars         = 15
	maxCorrelationBars = 15
)

func roleBars(in Input) (*plot.Plot, error) {
	if in.Analysis == nil || len(in.Analysis.Roles) == 0 {
		return nil, noData("role salaries")
	}
	p := newPlot("Average Salary by Role", salaryAxis, "")
	labels := make([]string, len(in.Analysis.Roles))
	values := make([]float64, len(in.Analysis.Roles))
	for i, r := range in.Analysis.Roles {
		labels[i] = r.Role
		values[i] = r.Mean
	}
	if err := signedBars(p, labels, values); err != nil {
		return nil, err
	}
	return p, nil
}

// roiBars draws the ROI of one technology family, highest first
func roiBars(prefix, title string) func(Input) (*plot.Plot, error) {
	category := strings.TrimSuffix(prefix, "_")
	return func(in Input) (*plot.Plot, error) {
		if in.Analysis == nil {
			return nil, noData("analysis results")
		}
		rows := analysis.FilterCategory(in.Analysis.ROI, category)
		if len(rows) == 0 {
			return nil, noData(category + " ROI")
		}
		if len(rows) > maxROIBars {
			rows = rows[:maxROIBars]
		}
		p := newPlot(title+" Salary ROI", "Salary difference, users minus non-users (thousand TL)", "")
		labels := make([]string, len(rows))
		values := make([]float64, len(rows))
		for i, r := range rows {
			labels[i] = r.Technology
			values[i] = r.ROI
		}
		if err := signedBars(p, labels, values); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// genderUsageBars draws male and female adoption side by side
func genderUsageBars(title string, pick func(analysis.GenderTechnologyUsage) []analysis.GenderUsage) func(Input) (*plot.Plot, error) {
	return func(in Input) (*plot.Plot, error) {
		if in.Analysis == nil {
			return nil, noData("analysis results")
		}
		rows := pick(in.Analysis.GenderUsage)
		if len(rows) == 0 {
			return nil, noData(title)
		}
		p := newPlot(title, "", "Usage (%)")
		labels := make([]string, len(rows))
		male := make(plotter.Values, len(rows))
		female := make(plotter.Values, len(rows))
		for i, r := range rows {
			labels[i] = r.Technology
			male[i] = r.MalePct
			female[i] = r.FemalePct
		}

		w := barWidth(len(rows))
		for _, s := range []struct {
			name   string
			values plotter.Values
			offset vg.Length
			color  color.Color
		}{
			{"Male", male, -w / 2, maleColor},
			{"Female", female, w / 2, femaleColor},
		} {
			bars, err := plotter.NewBarChart(s.values, w)
			if err != nil {
				return nil, err
			}
			bars.Offset = s.offset
			bars.LineStyle.Width = 0
			bars.Color = s.color
			p.Add(bars)
			p.Legend.Add(s.name, bars)
		}
		p.NominalX(labels...)
		return p, nil
	}
}

// correlationBars shows the technologies most correlated with salary in either direction
func correlationBars(in Input) (*plot.Plot, error) {
	if in.Analysis == nil || len(in.Analysis.TechCorrelations) == 0 {
		return nil, noData("technology correlations")
	}
	rows := in.Analysis.TechCorrelations
	if len(rows) > maxCorrelationBars {
		half := maxCorrelationBars / 2
		rows = append(append([]analysis.TechnologyCorrelation(nil), rows[:maxCorrelationBars-half]...), rows[len(rows)-half:]...)
	}
	p := newPlot("Correlation of Technologies with Salary", "Pearson r", "")
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.R) {
			continue
		}
		labels = append(labels, r.Technology)
		values = append(values, r.R)
	}
	if len(values) == 0 {
		return nil, noData("technology correlations")
	}
	if err := signedBars(p, labels, values); err != nil {
		return nil, err
	}
	return p, nil
}
