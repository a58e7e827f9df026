// Package chart renders a YES-price history as a small ASCII chart for
// terminal output.
package chart

import (
	"fmt"
	"math/big"
	"strings"

	"lmsrMarket/internal/fixedpoint"
)

const (
	chartHeight = 10
	chartWidth  = 60
)

// Render draws scaled prices (Scale = 1.0) as rows of percentage bands.
// Prices beyond chartWidth points are downsampled by taking the last
// price of each bucket.
func Render(prices []*big.Int) string {
	if len(prices) == 0 {
		return "no price history\n"
	}

	points := downsample(prices, chartWidth)

	// Map each point to a row: row 0 is 100%, the bottom row is 0%.
	rows := make([]int, len(points))
	scale := big.NewInt(fixedpoint.Scale)
	for i, p := range points {
		v := new(big.Int).Mul(p, big.NewInt(chartHeight-1))
		v.Quo(v, scale)
		row := chartHeight - 1 - int(v.Int64())
		if row < 0 {
			row = 0
		}
		if row > chartHeight-1 {
			row = chartHeight - 1
		}
		rows[i] = row
	}

	var b strings.Builder
	for row := 0; row < chartHeight; row++ {
		pct := (chartHeight - 1 - row) * 100 / (chartHeight - 1)
		fmt.Fprintf(&b, "%4d%% |", pct)
		for _, r := range rows {
			if r == row {
				b.WriteByte('*')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString("      +" + strings.Repeat("-", len(rows)) + "\n")
	fmt.Fprintf(&b, "       %d trades\n", len(prices))
	return b.String()
}

func downsample(prices []*big.Int, width int) []*big.Int {
	if len(prices) <= width {
		return prices
	}
	out := make([]*big.Int, 0, width)
	for i := 0; i < width; i++ {
		// last price of each bucket
		end := (i+1)*len(prices)/width - 1
		out = append(out, prices[end])
	}
	return out
}
