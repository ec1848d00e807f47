package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/httputil"
)

// handleIndex renders the track view and the time-series panel at the
// latest frame. Before the first frame it shows frame 0 of an empty trail.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}

	u, _ := s.publisher.Latest()
	page := components.NewPage()
	page.SetPageTitle(s.scene.Formula)
	if s.config.AssetsHost != "" {
		page.SetAssetsHost(s.config.AssetsHost)
	}
	page.AddCharts(s.trackChart(u), s.curvesChart(u))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

func (s *Server) initOpts(title string) opts.Initialization {
	return opts.Initialization{
		PageTitle:  title,
		Width:      "900px",
		Height:     "260px",
		AssetsHost: s.config.AssetsHost,
	}
}

// trackChart plots the trail and the marker on the horizontal track.
func (s *Server) trackChart(u animation.FrameUpdate) *charts.Scatter {
	trail := make([]opts.ScatterData, 0, len(u.Trail))
	n := len(u.Trail)
	for i := 0; i < n-1; i++ {
		trail = append(trail, opts.ScatterData{
			Value:      []interface{}{u.Trail[i], animation.Lane},
			SymbolSize: 4 + 6*(i+1)/n,
		})
	}
	marker := []opts.ScatterData{{
		Value:      []interface{}{u.Position, animation.Lane},
		SymbolSize: 16,
	}}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(s.initOpts("Track")),
		charts.WithTitleOpts(opts.Title{
			Title:    s.scene.Formula,
			Subtitle: fmt.Sprintf("t = %.2f s   frame %d", u.Time, u.Frame),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: s.scene.TrackMin, Max: s.scene.TrackMax, Name: "position", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -1, Max: 1, Show: opts.Bool(false)}),
	)
	scatter.AddSeries("trail", trail, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728", Opacity: opts.Float(0.4)}))
	scatter.AddSeries("marker", marker, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728"}))
	return scatter
}

// curvesChart plots the three curves with a cursor at the current time and
// a mark on each curve's current value.
func (s *Server) curvesChart(u animation.FrameUpdate) *charts.Line {
	lo, hi := s.curves.Bounds()
	pad := s.config.CurvePadding

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(s.initOpts("Curves")),
		charts.WithTitleOpts(opts.Title{
			Title: "Position, velocity and acceleration",
			Subtitle: fmt.Sprintf("s = %.2f   v = %.2f   a = %.2f",
				u.Position, u.Velocity, u.Acceleration),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: s.scene.TMin, Max: s.scene.TMax, Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: lo - pad, Max: hi + pad}),
	)

	series := []struct {
		name    string
		ys      []float64
		current float64
		color   string
	}{
		{"position", s.curves.S, u.Position, "#1f77b4"},
		{"velocity", s.curves.V, u.Velocity, "#2ca02c"},
		{"acceleration", s.curves.A, u.Acceleration, "#d62728"},
	}
	for i, c := range series {
		data := make([]opts.LineData, len(c.ys))
		for j, y := range c.ys {
			data[j] = opts.LineData{Value: []interface{}{s.curves.T[j], y}}
		}
		options := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: c.color}),
			charts.WithMarkPointNameCoordItemOpts(opts.MarkPointNameCoordItem{
				Name:       c.name,
				Coordinate: []interface{}{u.Time, c.current},
				Symbol:     "circle",
				SymbolSize: 10,
			}),
		}
		if i == 0 {
			options = append(options, charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
				Name:  "t",
				XAxis: u.Time,
			}))
		}
		line.AddSeries(c.name, data, options...)
	}
	return line
}
