package enums

import "fmt"

// BillingMode describes how usage on a field is priced. The mode is stored
// explicitly on both the field and the bill; it is never inferred from a
// zero hourly rate.
type BillingMode string

const (
	BillingModeTime  BillingMode = "time"
	BillingModeCount BillingMode = "count"
)

var validBillingModes = []BillingMode{
	BillingModeTime,
	BillingModeCount,
}

// String implements fmt.Stringer.
func (m BillingMode) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m BillingMode) IsValid() bool {
	for _, candidate := range validBillingModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseBillingMode converts raw input into a BillingMode.
func ParseBillingMode(value string) (BillingMode, error) {
	for _, candidate := range validBillingModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing mode %q", value)
}
