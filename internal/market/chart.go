package market

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Timeframe selects how many points a chart shows.
type Timeframe string

const (
	Hour  Timeframe = "1H"
	Day   Timeframe = "1D"
	Week  Timeframe = "1W"
	Month Timeframe = "1M"
	Year  Timeframe = "1Y"
)

// Timeframes lists the selectable chart ranges.
func Timeframes() []Timeframe { return []Timeframe{Hour, Day, Week, Month, Year} }

// ParseTimeframe accepts the display label of a timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if tf.Points() == 0 {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

// Points returns the number of samples drawn for the timeframe.
func (tf Timeframe) Points() int {
	switch tf {
	case Hour:
		return 60
	case Day:
		return 24
	case Week:
		return 7
	case Month:
		return 30
	case Year:
		return 365
	default:
		return 0
	}
}

// Point is one mock chart sample.
type Point struct {
	Time   int
	Price  float64
	Volume float64
}

const (
	maxVariation = 0.1 // ±5%
	maxVolume    = 1_000_000
)

// Series generates mock chart data around the token price, drifting in the direction of its 24h change.
func Series(tok Token, tf Timeframe, rng *rand.Rand) []Point {
	n := tf.Points()
	trend := 0.999
	if tok.Change24h > 0 {
		trend = 1.001
	}
	out := make([]Point, n)
	for i := range out {
		variation := (rng.Float64() - 0.5) * maxVariation
		out[i] = Point{
			Time:   i,
			Price:  tok.Price * (1 + variation) * math.Pow(trend, float64(i)),
			Volume: rng.Float64() * maxVolume,
		}
	}
	return out
}

// Bounds returns the min and max price of points.
func Bounds(points []Point) (lo, hi float64) {
	if len(points) == 0 {
		return 0, 0
	}
	lo, hi = points[0].Price, points[0].Price
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Price)
		hi = math.Max(hi, p.Price)
	}
	return lo, hi
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws prices as a single line of block characters, resampled to width columns.
func Sparkline(points []Point, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	if width > len(points) {
		width = len(points)
	}
	lo, hi := Bounds(points)
	span := hi - lo

	var b strings.Builder
	for col := 0; col < width; col++ {
		idx := col * len(points) / width
		level := 0
		if span > 0 {
			level = int((points[idx].Price - lo) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[level])
	}
	return b.String()
}
