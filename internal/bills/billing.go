package bills

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var elapsedFormatRe = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// formatElapsed renders a duration as zero-padded HH:MM:SS, truncated to
// whole seconds. Hours widen past two digits rather than wrap.
func formatElapsed(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	total := int64(elapsed / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// timeCost prices the full-precision elapsed duration against an hourly
// rate, rounding half-up to cents once at the end. Truncation to whole
// seconds is a display concern and belongs to formatElapsed only.
func timeCost(elapsed time.Duration, ratePerHour decimal.Decimal) decimal.Decimal {
	if elapsed < 0 {
		elapsed = 0
	}
	nanos := decimal.NewFromInt(elapsed.Nanoseconds())
	return ratePerHour.Mul(nanos).Div(nanosPerHour).Round(2)
}

// countCost prices a unit count at a unit price, rounding half-up to cents.
func countCost(count int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(count)).Round(2)
}

func validElapsedFormat(value string) bool {
	return elapsedFormatRe.MatchString(value)
}
