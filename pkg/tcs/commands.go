package tcs

import (
	"fmt"

	"github.com/neurostim/gotcs/pkg/encode"
	"github.com/neurostim/gotcs/pkg/surface"
)

// Console command prefixes, from the TCS command reference.
const (
	cmdBaseline         = "N"   // Nxxx: neutral temperature, 1/10 degrees
	cmdMaxTemp          = "Om"  // Omxxx: maximum stimulation temperature
	cmdMute             = "F"   // disable continuous temperature display
	cmdTriggerInEnable  = "Ose" // launch stimulation on trigger in
	cmdTriggerInDisable = "Osd"
	cmdTargetTemp       = "C0" // C0xxx: stimulation temperature, all zones
	cmdRiseRate         = "V0" // V0xxxx: rise speed, 1/10 deg/s
	cmdReturnRate       = "R0" // R0xxxx: return speed, 1/10 deg/s
	cmdDuration         = "D0" // D0xxxxx: stimulation duration, ms
	cmdSurfaces         = "S"  // Sbbbbb: zone enable mask
	cmdFire             = "L"  // start stimulation
	cmdAbort            = "A"  // abort, return to neutral
	cmdReset            = "Oc" // reset stimulator
	cmdBuzzer           = "Z"  // Zdddfff: duration (10ms units), frequency (10Hz units)
	cmdReadTemps        = "E"  // current temperatures, 1/10 degrees
)

func baselineCommand(degC float64) (string, error) {
	f, err := encode.Temp(degC)
	if err != nil {
		return "", fmt.Errorf("baseline temperature: %w", err)
	}
	return cmdBaseline + f, nil
}

func maxTempCommand(degC float64) (string, error) {
	f, err := encode.Temp(degC)
	if err != nil {
		return "", fmt.Errorf("max temperature: %w", err)
	}
	return cmdMaxTemp + f, nil
}

func targetTempCommand(degC float64) (string, error) {
	f, err := encode.Temp(degC)
	if err != nil {
		return "", fmt.Errorf("target temperature: %w", err)
	}
	return cmdTargetTemp + f, nil
}

func riseRateCommand(degPerS float64) (string, error) {
	f, err := encode.Rate(degPerS)
	if err != nil {
		return "", fmt.Errorf("rise rate: %w", err)
	}
	return cmdRiseRate + f, nil
}

func returnRateCommand(degPerS float64) (string, error) {
	f, err := encode.Rate(degPerS)
	if err != nil {
		return "", fmt.Errorf("return rate: %w", err)
	}
	return cmdReturnRate + f, nil
}

func durationCommand(ms int) (string, error) {
	f, err := encode.Millis(ms)
	if err != nil {
		return "", fmt.Errorf("stimulation duration: %w", err)
	}
	return cmdDuration + f, nil
}

func surfacesCommand(s surface.Set) (string, error) {
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("surfaces: %w", err)
	}
	return cmdSurfaces + s.Mask(), nil
}

// buzzerCommand encodes the Z command. Duration is in 10ms units,
// frequency in 10Hz units, three digits each.
func buzzerCommand(dur, freq int) (string, error) {
	d, err := encode.FixedWidth(dur, 3)
	if err != nil {
		return "", fmt.Errorf("buzzer duration: %w", err)
	}
	f, err := encode.FixedWidth(freq, 3)
	if err != nil {
		return "", fmt.Errorf("buzzer frequency: %w", err)
	}
	return cmdBuzzer + d + f, nil
}
