// Package encode renders numeric command parameters as the fixed-width,
// zero-padded decimal fields the TCS console expects.
package encode

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrValueOutOfRange indicates a value that does not fit the requested width.
var ErrValueOutOfRange = errors.New("value out of range for field width")

// RangeError describes a value that cannot be encoded in the given width.
type RangeError struct {
	Value int
	Width int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %d does not fit in %d decimal digits", e.Value, e.Width)
}

// Is reports whether target is ErrValueOutOfRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrValueOutOfRange
}

// FixedWidth encodes value as exactly width decimal digits, zero-padded on
// the left. Negative values and values requiring more than width digits are
// rejected rather than truncated.
func FixedWidth(value, width int) (string, error) {
	if value < 0 {
		return "", &RangeError{Value: value, Width: width}
	}
	s := strconv.Itoa(value)
	if len(s) > width {
		return "", &RangeError{Value: value, Width: width}
	}
	for len(s) < width {
		s = "0" + s
	}
	return s, nil
}

// Temp encodes a temperature in degrees Celsius as tenths of a degree,
// 3 digits ("N", "Om" and "C0" commands).
func Temp(degC float64) (string, error) {
	return FixedWidth(int(degC*10 + 0.5), 3)
}

// Rate encodes a ramp rate in degrees per second as tenths of a degree per
// second, 4 digits ("V0" and "R0" commands).
func Rate(degPerS float64) (string, error) {
	return FixedWidth(int(degPerS*10+0.5), 4)
}

// Millis encodes a duration in milliseconds, 5 digits ("D0" command).
func Millis(ms int) (string, error) {
	return FixedWidth(ms, 5)
}
