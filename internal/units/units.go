// Package units provides shared constants, validation and conversion for the
// bat exit-velocity units reported alongside joint angles.
package units

import "strings"

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// mphPerMPS is the exact number of miles per hour in one metre per second.
const mphPerMPS = 3600 / 1609.344

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
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed from metres per second to the target units.
// Unknown units leave the value in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mphPerMPS
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ToMPS converts a speed in the given units to metres per second.
// Unknown units are taken to be m/s.
func ToMPS(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case MPH:
		return speed / mphPerMPS
	case KMPH, KPH:
		return speed / 3.6
	default:
		return speed
	}
}

// ConvertExitVelocity converts an exit velocity recorded in mph, as encoded
// in trial file names, to the target units.
func ConvertExitVelocity(mph float64, targetUnits string) float64 {
	if targetUnits == MPH {
		return mph
	}
	return ConvertSpeed(ToMPS(mph, MPH), targetUnits)
}
