// Package timing resolves stimulation phase durations from a raw duration
// and a named interpretation mode.
//
// The TCS duration parameter always covers rise plus plateau; the return
// ramp runs automatically once it elapses. The three modes only change what
// the caller-supplied duration means, and the resolver normalizes all of
// them to the device convention.
package timing

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects how a raw stimulation duration is interpreted.
type Mode int

const (
	// FixedStim: the raw duration is rise+plateau; return is extra time.
	FixedStim Mode = iota
	// FixedPlateau: the raw duration is the plateau only; rise time is
	// added on top.
	FixedPlateau
	// FixedTotal: the raw duration is the whole trial (rise+plateau+return);
	// return time is subtracted before transmission.
	FixedTotal
)

// ErrInvalidMode indicates an unrecognized duration-mode name.
var ErrInvalidMode = errors.New("invalid duration mode")

var modeNames = map[Mode]string{
	FixedStim:    "fixed_stim",
	FixedPlateau: "fixed_plateau",
	FixedTotal:   "fixed_total",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// NegativeDurationError indicates that mode adjustment produced a
// non-positive effective duration, which must not be transmitted.
type NegativeDurationError struct {
	Mode      Mode
	Raw       time.Duration
	Effective time.Duration
}

func (e *NegativeDurationError) Error() string {
	return fmt.Sprintf("mode %s yields non-positive effective duration %v from raw duration %v",
		e.Mode, e.Effective, e.Raw)
}

// Phases holds the resolved phase durations of one stimulation.
type Phases struct {
	// Rise is the time to ramp from baseline to target.
	Rise time.Duration
	// Return is the time to ramp back to baseline.
	Return time.Duration
	// Effective is rise+plateau, the value transmitted as the device
	// duration parameter.
	Effective time.Duration
	// Total is Effective plus Return, the full wall-clock span of the
	// stimulation.
	Total time.Duration
}

// Plateau returns the held-temperature portion of the stimulation.
func (p Phases) Plateau() time.Duration {
	return p.Effective - p.Rise
}

// Resolve computes phase durations for a stimulation from target to
// baseline under the given mode. Temperatures are in degrees Celsius,
// rates in degrees per second. The target must exceed the baseline and
// both rates must be positive; a configuration whose effective duration
// comes out non-positive is rejected with *NegativeDurationError.
func Resolve(target, baseline, riseRate, returnRate float64, raw time.Duration, mode Mode) (Phases, error) {
	if riseRate <= 0 {
		return Phases{}, fmt.Errorf("rise rate must be positive, got %g", riseRate)
	}
	if returnRate <= 0 {
		return Phases{}, fmt.Errorf("return rate must be positive, got %g", returnRate)
	}
	if target <= baseline {
		return Phases{}, fmt.Errorf("target %g must exceed baseline %g", target, baseline)
	}
	if raw <= 0 {
		return Phases{}, fmt.Errorf("duration must be positive, got %v", raw)
	}

	delta := target - baseline
	rise := time.Duration(delta / riseRate * float64(time.Second))
	ret := time.Duration(delta / returnRate * float64(time.Second))

	var effective time.Duration
	switch mode {
	case FixedStim:
		effective = raw
	case FixedPlateau:
		effective = raw + rise
	case FixedTotal:
		effective = raw - ret
	default:
		return Phases{}, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	if effective <= 0 {
		return Phases{}, &NegativeDurationError{Mode: mode, Raw: raw, Effective: effective}
	}

	return Phases{
		Rise:      rise,
		Return:    ret,
		Effective: effective,
		Total:     effective + ret,
	}, nil
}
