package exchange

import (
	"math"
	"strconv"
	"strings"
)

// FormatToStep truncates value down to the nearest multiple of step and
// formats it with the step's decimal precision. Steps come from the exchange
// as decimal strings like "0.00100000" or "1.00000000". A zero, empty or
// unparsable step leaves the value unrounded.
func FormatToStep(value float64, step string) string {
	stepVal, err := strconv.ParseFloat(step, 64)
	if err != nil || stepVal <= 0 {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	// The epsilon is relative: division error grows with the quotient, so
	// an absolute nudge would still truncate exact multiples of small steps.
	quotient := value / stepVal
	truncated := math.Floor(quotient*(1+1e-9)) * stepVal
	return strconv.FormatFloat(truncated, 'f', stepDecimals(step), 64)
}

// stepDecimals counts the significant fractional digits of a step string.
// "0.00100000" has 3, "1.00000000" has 0.
func stepDecimals(step string) int {
	dot := strings.IndexByte(step, '.')
	if dot < 0 {
		return 0
	}
	frac := strings.TrimRight(step[dot+1:], "0")
	return len(frac)
}
