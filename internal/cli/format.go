// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// FormatEnergy renders the end-of-session summary line, e.g.
// "Energy: ~0.42 Wh (~0.11 EUR) | 12,340 tokens".
func FormatEnergy(energyWh, cost float64, currency string, totalTokens int64) string {
	return fmt.Sprintf("Energy: ~%s Wh (~%s %s) | %s tokens",
		FormatFixed2(energyWh),
		FormatFixed2(cost),
		currency,
		FormatNumber(totalTokens),
	)
}

// FormatFixed2 formats f with two decimals, rounding halves away from
// zero (37.625 -> "37.63"). fmt's %.2f would round that case to even.
func FormatFixed2(f float64) string {
	r := math.Round(f*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', 2, 64)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatWh formats an energy value, switching to kWh at 1000 Wh.
func FormatWh(wh float64) string {
	if wh >= 1000 {
		return FormatFixed2(wh/1000) + " kWh"
	}
	if wh > 0 && wh < 0.01 {
		return fmt.Sprintf("%.4f Wh", wh)
	}
	return FormatFixed2(wh) + " Wh"
}

// FormatCost formats a cost value with its currency label. Sub-cent
// amounts keep extra precision so tiny sessions don't read as zero.
func FormatCost(cost float64, currency string) string {
	if cost > 0 && cost < 0.01 {
		return fmt.Sprintf("%.5f %s", cost, currency)
	}
	return FormatFixed2(cost) + " " + currency
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Truncate shortens s to at most width terminal cells, ending in "…"
// when anything was cut. Wide and multi-byte runes are never split.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
