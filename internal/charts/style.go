package charts

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const salaryAxis = "Salary (thousand TL)"

var (
	positiveColor = color.RGBA{R: 46, G: 139, B: 87, A: 255}
	negativeColor = color.RGBA{R: 205, G: 92, B: 92, A: 255}
	meanColor     = color.RGBA{R: 220, G: 20, B: 60, A: 255}
	maleColor     = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	femaleColor   = color.RGBA{R: 219, G: 112, B: 147, A: 255}
)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func seriesColor(i int) color.Color {
	return plotutil.Color(i)
}

// signedBars draws horizontal bars, green for positive and red for negative
// values, with labels from the top down
func signedBars(p *plot.Plot, labels []string, values []float64) error {
	n := len(values)
	pos := make(plotter.Values, n)
	neg := make(plotter.Values, n)
	names := make([]string, n)
	// the first label is drawn at the top
	for i, v := range values {
		j := n - 1 - i
		names[j] = labels[i]
		if v >= 0 {
			pos[j] = v
		} else {
			neg[j] = v
		}
	}
	w := barWidth(n)
	for _, s := range []struct {
		values plotter.Values
		color  color.Color
	}{{pos, positiveColor}, {neg, negativeColor}} {
		bars, err := plotter.NewBarChart(s.values, w)
		if err != nil {
			return err
		}
		bars.Horizontal = true
		bars.Color = s.color
		bars.LineStyle.Width = 0
		p.Add(bars)
	}
	p.NominalY(names...)
	return nil
}

// barWidth shrinks bars as their number grows
func barWidth(n int) vg.Length {
	switch {
	case n > 20:
		return vg.Points(8)
	case n > 10:
		return vg.Points(14)
	default:
		return vg.Points(24)
	}
}
