package chart

import (
	"bytes"
	"shib-price-bot/internal/price"
	"shib-price-bot/internal/types"
	"sync"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	lineColor       = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	fillColor       = drawing.Color{R: 0, G: 122, B: 255, A: 25}
)

var (
	fontOnce sync.Once
	font     *truetype.Font
	fontErr  error
)

func defaultFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		font, fontErr = chart.GetDefaultFont()
	})
	return font, fontErr
}

// RenderHistory draws the samples as a PNG line chart. At least two samples
// are needed to draw a line.
func RenderHistory(title string, samples []price.Sample, formatPrice func(float64) string) ([]byte, error) {
	if len(samples) < 2 {
		return nil, errors.Wrapf(types.ErrInsufficientData, "chart needs 2 samples, have %d", len(samples))
	}

	f, err := defaultFont()
	if err != nil {
		return nil, errors.Wrap(err, "could not load chart font")
	}

	times := make([]time.Time, len(samples))
	prices := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.At
		prices[i] = s.Price
	}

	minPrice, maxPrice := getMinMax(prices)
	padding := (maxPrice - minPrice) * 0.1
	if padding == 0 {
		padding = maxPrice * 0.01
	}
	if padding == 0 {
		padding = 1
	}

	axisStyle := chart.Style{FontColor: textColor, StrokeColor: textColor, FontSize: 10}

	graph := chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: textColor, FontSize: 14},
		Width:      1200,
		Height:     600,
		Font:       f,
		Background: chart.Style{
			FillColor: backgroundColor,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: backgroundColor},
		XAxis: chart.XAxis{
			Style:          axisStyle,
			ValueFormatter: timeFormatter,
		},
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: minPrice - padding, Max: maxPrice + padding},
			ValueFormatter: func(v interface{}) string {
				if p, ok := v.(float64); ok {
					return formatPrice(p)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				XValues: times,
				YValues: prices,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					FillColor:   fillColor,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "could not render chart")
	}
	return buf.Bytes(), nil
}

// timeFormatter labels the x axis with local wall-clock minutes.
func timeFormatter(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("15:04")
	case float64:
		return time.Unix(0, int64(t)).Format("15:04")
	}
	return ""
}

func getMinMax(prices []float64) (min, max float64) {
	if len(prices) == 0 {
		return 0, 1
	}

	min, max = prices[0], prices[0]
	for _, p := range prices {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}
