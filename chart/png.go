package chart

import (
	"image/color"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/warehousesim/gridexport/layout"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var palette = map[string]color.Color{
	"shelves":          color.RGBA{R: 128, G: 128, B: 128, A: 255},
	"machines":         color.RGBA{R: 220, G: 50, B: 47, A: 255},
	"agents":           color.RGBA{R: 38, G: 139, B: 210, A: 255},
	"pickups":          color.RGBA{R: 181, G: 137, B: 0, A: 255},
	"drops":            color.RGBA{R: 133, G: 153, B: 0, A: 255},
	"path_to_box":      color.RGBA{R: 38, G: 139, B: 210, A: 255},
	"path_to_delivery": color.RGBA{R: 211, G: 54, B: 130, A: 255},
}

// RenderPNG writes a PNG of the occupied cells of data. When plan is not
// nil its paths are drawn on top.
func RenderPNG(w io.Writer, data layout.FactoryData, plan *layout.Plan) error {
	p := plot.New()
	p.Title.Text = data.Floor.Name
	p.X.Label.Text = "col"
	p.Y.Label.Text = "row"
	p.X.Min = 0
	p.X.Max = float64(data.Grid.Cols)
	p.Y.Min = 0
	p.Y.Max = float64(data.Grid.Rows)
	p.Add(plotter.NewGrid())

	for _, s := range families(data) {
		xys := make(plotter.XYs, 0, len(s.cells))
		for _, c := range s.cells {
			x, y := cellCenter(c)
			xys = append(xys, plotter.XY{X: x, Y: y})
		}

		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.New("creating scatter failed").
				WithTag("series", s.name).
				Wrap(err)
		}
		sc.GlyphStyle.Color = palette[s.name]
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)

		p.Add(sc)
		p.Legend.Add(s.name, sc)
	}

	if plan != nil {
		paths := []struct {
			name   string
			points []layout.Point
		}{
			{name: "path_to_box", points: plan.PathToBox},
			{name: "path_to_delivery", points: plan.PathToDelivery},
		}

		for _, path := range paths {
			if len(path.points) == 0 {
				continue
			}

			xys := make(plotter.XYs, 0, len(path.points))
			for _, pt := range path.points {
				xys = append(xys, plotter.XY{X: float64(pt.X()) + 0.5, Y: float64(pt.Y()) + 0.5})
			}

			line, err := plotter.NewLine(xys)
			if err != nil {
				return errors.New("creating path line failed").
					WithTag("path", path.name).
					Wrap(err)
			}
			line.Color = palette[path.name]
			line.Width = vg.Points(2)

			p.Add(line)
			p.Legend.Add(path.name, line)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return errors.New("creating png writer failed").Wrap(err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.New("writing png failed").Wrap(err)
	}
	return nil
}
