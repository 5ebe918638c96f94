/*
NAME
  plot.go

DESCRIPTION
  plot.go renders an optional diagnostic PNG of a fitted noise floor:
  the measured smoothed dB curve and the baseline linear thresholds
  converted back to dB. The polynomial fit and the outlier thresholds
  are not drawn as separate curves. Plotting never fails
  calibration; callers log and continue on error.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotResult renders res to path as a PNG showing the measured noise
// floor and the baseline threshold curve (ThreshLinear, in dB)
// against bin index.
func PlotResult(path string, res Result) error {
	p := plot.New()
	p.Title.Text = "SparSDR noise floor calibration"
	p.X.Label.Text = "bin (centred)"
	p.Y.Label.Text = "dB"

	measured := make(plotter.XYs, len(res.SmoothDb))
	thresh := make(plotter.XYs, len(res.ThreshLinear))
	for i := range res.SmoothDb {
		measured[i].X = float64(i)
		measured[i].Y = res.SmoothDb[i]
		thresh[i].X = float64(i)
		thresh[i].Y = 10 * math.Log10(res.ThreshLinear[i])
	}

	measuredLine, err := plotter.NewLine(measured)
	if err != nil {
		return errors.Wrap(err, "calib: building measured-noise-floor plot line")
	}

	threshLine, err := plotter.NewLine(thresh)
	if err != nil {
		return errors.Wrap(err, "calib: building threshold plot line")
	}
	threshLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(measuredLine, threshLine)
	p.Legend.Add("measured", measuredLine)
	p.Legend.Add("threshold", threshLine)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "calib: saving calibration plot")
	}
	return nil
}
