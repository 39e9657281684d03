package chart

import (
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/warehousesim/gridexport/layout"
)

// RenderHTML writes an HTML page with a scatter of the occupied cells of
// data, one series per family.
func RenderHTML(w io.Writer, data layout.FactoryData) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Layout", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    data.Floor.Name,
			Subtitle: fmt.Sprintf("rows=%d cols=%d cell=%.3g", data.Grid.Rows, data.Grid.Cols, data.Grid.CellSize),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: data.Grid.Cols, Name: "col", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: data.Grid.Rows, Name: "row", NameLocation: "middle", NameGap: 30}),
	)

	for _, s := range families(data) {
		points := make([]opts.ScatterData, 0, len(s.cells))
		for _, c := range s.cells {
			x, y := cellCenter(c)
			points = append(points, opts.ScatterData{Value: []interface{}{x, y}})
		}
		scatter.AddSeries(s.name, points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	}

	if err := scatter.Render(w); err != nil {
		return errors.New("rendering html chart failed").Wrap(err)
	}
	return nil
}
