package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"salarycli/internal/analysis"
	"salarycli/internal/survey"
)

func hourLabels(hours []analysis.HourStat) []string {
	out := make([]string, len(hours))
	for i, h := range hours {
		out[i] = fmt.Sprintf("%02d", h.Hour)
	}
	return out
}

func hourlySalary(in Input) (*plot.Plot, error) {
	if in.Analysis == nil || len(in.Analysis.Participation.Hours) == 0 {
		return nil, noData("hourly participation")
	}
	hours := in.Analysis.Participation.Hours
	p := newPlot("Average Salary by Survey Hour", "Hour of submission", salaryAxis)
	values := make(plotter.Values, len(hours))
	for i, h := range hours {
		if !math.IsNaN(h.MeanSalary) {
			values[i] = h.MeanSalary
		}
	}
	bars, err := plotter.NewBarChart(values, barWidth(len(hours)))
	if err != nil {
		return nil, err
	}
	bars.Color = seriesColor(0)
	bars.LineStyle.Width = 0
	p.Add(bars)

	if overall := in.Analysis.Key.SalaryMean; overall > 0 {
		line, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: overall}, {X: float64(len(hours)) - 0.5, Y: overall}})
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = meanColor
		line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Overall mean: %.1f", overall), line)
	}
	p.NominalX(hourLabels(hours)...)
	return p, nil
}

func hourlyParticipants(in Input) (*plot.Plot, error) {
	if in.Analysis == nil || len(in.Analysis.Participation.Hours) == 0 {
		return nil, noData("hourly participation")
	}
	hours := in.Analysis.Participation.Hours
	p := newPlot("Participants by Survey Hour", "Hour of submission", "Participants")
	values := make(plotter.Values, len(hours))
	for i, h := range hours {
		values[i] = float64(h.Count)
	}
	bars, err := plotter.NewBarChart(values, barWidth(len(hours)))
	if err != nil {
		return nil, err
	}
	bars.Color = seriesColor(1)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(hourLabels(hours)...)
	return p, nil
}

// shareGrid adapts a RoleHourShare to plotter.GridXYZ: columns are hours, rows roles
type shareGrid struct {
	share analysis.RoleHourShare
}

func (g shareGrid) Dims() (c, r int)   { return len(g.share.Hours), len(g.share.Roles) }
func (g shareGrid) Z(c, r int) float64 { return g.share.Share[r][c] }
func (g shareGrid) X(c int) float64    { return float64(c) }
func (g shareGrid) Y(r int) float64    { return float64(r) }

func roleHourHeatmap(in Input) (*plot.Plot, error) {
	if in.Analysis == nil {
		return nil, noData("analysis results")
	}
	share := in.Analysis.Participation.RoleShare
	if len(share.Roles) == 0 || len(share.Hours) == 0 {
		return nil, noData("role share by hour")
	}
	p := plot.New()
	p.Title.Text = "Role Distribution by Hour (% of respondents)"
	p.X.Label.Text = "Hour of submission"

	heat := plotter.NewHeatMap(shareGrid{share}, palette.Heat(12, 1))
	p.Add(heat)

	hours := make([]string, len(share.Hours))
	for i, h := range share.Hours {
		hours[i] = fmt.Sprintf("%02d", h)
	}
	p.NominalX(hours...)
	p.NominalY(share.Roles...)
	return p, nil
}

func modelComparison(in Input) (*plot.Plot, error) {
	if in.ML == nil || len(in.ML.Models) == 0 {
		return nil, noData("model results")
	}
	models := in.ML.Models
	p := newPlot("Model Comparison", "", "R²")
	labels := make([]string, len(models))
	test := make(plotter.Values, len(models))
	cv := make(plotter.Values, len(models))
	for i, m := range models {
		labels[i] = m.Name
		test[i] = m.Test.R2
		cv[i] = m.CV.R2Mean
	}
	w := barWidth(len(models) * 2)
	for i, s := range []struct {
		name   string
		values plotter.Values
		offset vg.Length
	}{
		{"Test R²", test, -w / 2},
		{"CV R²", cv, w / 2},
	} {
		bars, err := plotter.NewBarChart(s.values, w)
		if err != nil {
			return nil, err
		}
		bars.Offset = s.offset
		bars.Color = seriesColor(i)
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.Legend.Add(s.name, bars)
	}
	p.NominalX(labels...)
	return p, nil
}

func clusterScatter(in Input) (*plot.Plot, error) {
	if in.ML == nil || in.ML.Clusters == nil {
		return nil, noData("cluster results")
	}
	d := in.Data
	labels := in.ML.Clusters.Labels
	if len(labels) != d.Len() || !d.IsNumeric(survey.ColExperience) || !d.IsNumeric(survey.ColSalary) {
		return nil, noData("cluster labels for this dataset")
	}
	p := newPlot("Developer Clusters", "Experience (years)", salaryAxis)
	experience := d.Float(survey.ColExperience)
	salary := d.Float(survey.ColSalary)

	for _, s := range in.ML.Clusters.Summary {
		var xys plotter.XYs
		for i, label := range labels {
			if label != s.Cluster || math.IsNaN(experience[i]) || math.IsNaN(salary[i]) {
				continue
			}
			xys = append(xys, plotter.XY{X: experience[i], Y: salary[i]})
		}
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = seriesColor(s.Cluster)
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("Cluster %d (n=%d)", s.Cluster, s.Size), sc)
	}
	return p, nil
}
