package enums

import "fmt"

// BillStatus tracks a bill through its lifecycle. Transitions only move
// forward: open -> payable -> settled. Settled is terminal.
type BillStatus string

const (
	BillStatusOpen    BillStatus = "open"
	BillStatusPayable BillStatus = "payable"
	BillStatusSettled BillStatus = "settled"
)

var validBillStatuses = []BillStatus{
	BillStatusOpen,
	BillStatusPayable,
	BillStatusSettled,
}

// String implements fmt.Stringer.
func (s BillStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s BillStatus) IsValid() bool {
	for _, candidate := range validBillStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank returns the position of the status in the lifecycle sequence.
// Higher ranks are later states; unknown statuses rank below all valid ones.
func (s BillStatus) Rank() int {
	for i, candidate := range validBillStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to target is a forward
// transition of exactly one step.
func (s BillStatus) CanAdvanceTo(target BillStatus) bool {
	from, to := s.Rank(), target.Rank()
	return from >= 0 && to == from+1
}

// ParseBillStatus converts raw input into a BillStatus.
func ParseBillStatus(value string) (BillStatus, error) {
	for _, candidate := range validBillStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bill status %q", value)
}
