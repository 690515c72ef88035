package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/samber/oops"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/leaklab/internal/analysis"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
	curvePts   = 200
)

// Plot draws the ideal leakage curve for the bench R together with the
// recorded readings, and the fitted curve when there is one.
func Plot(rep *Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Leakage of condenser"
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "deflection (div)"
	p.Add(plotter.NewGrid())

	tMax := 5 * rep.Bench.Resistance * rep.Bench.Capacitance
	for _, r := range rep.Readings {
		if r.TimeSeconds > tMax {
			tMax = r.TimeSeconds
		}
	}

	ideal, err := plotter.NewLine(curve(rep.Bench.MaxDeflection, tMax, rep.Bench.Resistance, rep.Bench.Capacitance))
	if err != nil {
		return nil, err
	}
	ideal.Color = color.RGBA{R: 80, G: 120, B: 200, A: 255}
	p.Add(ideal)
	p.Legend.Add(fmt.Sprintf("ideal, R = %.2f MΩ", rep.Bench.Resistance), ideal)

	if rep.Fit != nil {
		fitted, err := plotter.NewLine(curve(rep.Bench.MaxDeflection, tMax, rep.Fit.Resistance, rep.Bench.Capacitance))
		if err != nil {
			return nil, err
		}
		fitted.Color = color.RGBA{R: 220, G: 120, B: 40, A: 255}
		fitted.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(fitted)
		p.Legend.Add(fmt.Sprintf("fit, R = %.2f MΩ", rep.Fit.Resistance), fitted)
	}

	if len(rep.Readings) > 0 {
		pts := make(plotter.XYs, len(rep.Readings))
		for i, r := range rep.Readings {
			pts[i].X = r.TimeSeconds
			pts[i].Y = r.FinalDeflection
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		scatter.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		p.Add(scatter)
		p.Legend.Add("readings", scatter)
	}

	return p, nil
}

func curve(v0, tMax, resistance, capacitance float64) plotter.XYs {
	pts := make(plotter.XYs, curvePts+1)
	for i := range pts {
		t := tMax * float64(i) / curvePts
		pts[i].X = t
		pts[i].Y = analysis.Decay(v0, t, resistance, capacitance)
	}
	return pts
}

func SavePlot(path string, rep *Report) error {
	p, err := Plot(rep)
	if err != nil {
		return oops.In("report").Wrapf(err, "failed to build plot")
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return oops.In("report").With("path", path).Wrapf(err, "failed to save plot")
	}
	return nil
}

// WritePNG renders the plot to w.
func WritePNG(w io.Writer, rep *Report) error {
	p, err := Plot(rep)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
