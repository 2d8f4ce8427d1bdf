package enums

import "fmt"

// AlertType identifies the management alert category.
type AlertType string

const (
	AlertTypeShiftDiscrepancy AlertType = "shift_discrepancy"
)

var validAlertTypes = []AlertType{
	AlertTypeShiftDiscrepancy,
}

// IsValid reports whether the value is a known AlertType.
func (t AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}
