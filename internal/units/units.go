// Package units provides the display units for limb speeds. The pipeline
// works in world-landmark units per second, which are metre-scale, so every
// internal value is treated as m/s and converted only for presentation.
package units

import (
	"fmt"
	"strconv"
)

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from metres per second to the target units.
// Unknown units leave the value in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// Label returns the short suffix shown next to a speed in targetUnits.
func Label(targetUnits string) string {
	switch targetUnits {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return "m/s"
	}
}

// Format converts speedMPS and renders it with precision decimals and the
// unit label, e.g. "2.00 m/s".
func Format(speedMPS float64, targetUnits string, precision int) string {
	if precision < 0 {
		precision = 0
	}
	v := strconv.FormatFloat(ConvertSpeed(speedMPS, targetUnits), 'f', precision, 64)
	return fmt.Sprintf("%s %s", v, Label(targetUnits))
}
