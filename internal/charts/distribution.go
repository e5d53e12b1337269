package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"salarycli/internal/survey"
)

const histogramBins = 30

func salaryHistogram(in Input) (*plot.Plot, error) {
	values := in.Data.Values(survey.ColSalary, nil)
	if len(values) < 2 {
		return nil, noData(survey.ColSalary)
	}
	p := newPlot("Salary Distribution", salaryAxis, "Respondents")

	hist, err := plotter.NewHist(plotter.Values(values), histogramBins)
	if err != nil {
		return nil, err
	}
	hist.FillColor = seriesColor(0)
	p.Add(hist)

	var top float64
	for _, b := range hist.Bins {
		top = max(top, b.Weight)
	}
	mean := stat.Mean(values, nil)
	line, err := plotter.NewLine(plotter.XYs{{X: mean, Y: 0}, {X: mean, Y: top}})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = meanColor
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("Mean: %.1f", mean), line)
	return p, nil
}

// boxPlot draws one box per group; groups with fewer than two salaries are dropped
func boxPlot(title, xLabel string, labels []string, groups [][]float64) (*plot.Plot, error) {
	p := newPlot(title, xLabel, salaryAxis)
	var names []string
	for i, g := range groups {
		if len(g) < 2 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(len(names)), plotter.Values(g))
		if err != nil {
			return nil, err
		}
		box.FillColor = seriesColor(i)
		p.Add(box)
		names = append(names, fmt.Sprintf("%s (n=%d)", labels[i], len(g)))
	}
	if len(names) == 0 {
		return nil, noData(title)
	}
	p.NominalX(names...)
	return p, nil
}

func prefixGroups(d *survey.Dataset, prefix string) ([]string, [][]float64) {
	var labels []string
	var groups [][]float64
	for _, col := range d.ColumnsWithPrefix(prefix) {
		labels = append(labels, survey.DisplayLabel(col, prefix))
		groups = append(groups, d.Salaries(d.Mask(col, 1)))
	}
	return labels, groups
}

func seniorityBoxPlot(in Input) (*plot.Plot, error) {
	if !in.Data.IsNumeric(survey.ColSeniority) {
		return nil, noData(survey.ColSeniority)
	}
	var labels []string
	var groups [][]float64
	for _, level := range survey.CareerLevels() {
		labels = append(labels, survey.CareerLevelLabel(level))
		groups = append(groups, in.Data.Salaries(in.Data.Mask(survey.ColSeniority, float64(level))))
	}
	return boxPlot("Salary by Career Level", "Career level", labels, groups)
}

func workModeBoxPlot(in Input) (*plot.Plot, error) {
	labels, groups := prefixGroups(in.Data, survey.PrefixWorkMode)
	return boxPlot("Salary by Work Mode", "Work mode", labels, groups)
}

func locationBoxPlot(in Input) (*plot.Plot, error) {
	labels, groups := prefixGroups(in.Data, survey.PrefixCompanyLocation)
	return boxPlot("Salary by Company Location", survey.LocationNote, labels, groups)
}

func employmentBoxPlot(in Input) (*plot.Plot, error) {
	labels, groups := prefixGroups(in.Data, survey.PrefixEmploymentType)
	return boxPlot("Salary by Employment Type", "Employment type", labels, groups)
}

func genderBoxPlot(in Input) (*plot.Plot, error) {
	if !in.Data.IsNumeric(survey.ColGender) {
		return nil, noData(survey.ColGender)
	}
	codes := []float64{survey.GenderMale, survey.GenderFemale}
	labels := make([]string, len(codes))
	groups := make([][]float64, len(codes))
	for i, code := range codes {
		labels[i] = survey.GenderLabel(code)
		groups[i] = in.Data.Salaries(in.Data.Mask(survey.ColGender, code))
	}
	return boxPlot("Salary by Gender", "Gender", labels, groups)
}

func experienceScatter(in Input) (*plot.Plot, error) {
	d := in.Data
	if !d.IsNumeric(survey.ColExperience) || !d.IsNumeric(survey.ColSeniority) {
		return nil, noData(survey.ColExperience)
	}
	p := newPlot("Experience vs Salary", "Experience (years)", salaryAxis)
	experience := d.Float(survey.ColExperience)
	salary := d.Float(survey.ColSalary)
	seniority := d.Float(survey.ColSeniority)

	drawn := 0
	for i, level := range survey.CareerLevels() {
		var xys plotter.XYs
		for r := range salary {
			if seniority[r] != float64(level) || math.IsNaN(experience[r]) || math.IsNaN(salary[r]) {
				continue
			}
			xys = append(xys, plotter.XY{X: experience[r], Y: salary[r]})
		}
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = seriesColor(i)
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(survey.CareerLevelLabel(level), s)
		drawn += len(xys)
	}
	if drawn == 0 {
		return nil, noData("experience and salary pairs")
	}
	return p, nil
}
