// Package tcs drives a TCS thermal stimulator over its serial console
// protocol: session configuration, stimulation parameters, firing, and
// synchronous temperature sampling during a stimulation.
package tcs

import (
	"fmt"
	"time"

	"github.com/neurostim/gotcs/pkg/logger"
	"github.com/neurostim/gotcs/pkg/surface"
	"github.com/neurostim/gotcs/pkg/timing"
)

// Documented safe ranges for session temperatures, degrees Celsius.
const (
	BaselineMin = 30.0
	BaselineMax = 45.0
	MaxTempMin  = 10.0
	MaxTempMax  = 60.0
)

// CommError wraps a transport failure during a command exchange.
type CommError struct {
	Op  string
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("device communication failed during %s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }

// RangeWarning reports a configuration value outside its documented range.
// The device firmware accepts such values, so the command is still
// transmitted; the warning is returned for the caller to act on.
type RangeWarning struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (w *RangeWarning) Error() string {
	return fmt.Sprintf("%s %.1f is outside the %.0f-%.0f range", w.Field, w.Value, w.Min, w.Max)
}

// Options configures a new session.
type Options struct {
	// Baseline is the resting temperature between stimulations,
	// normally within [30,45].
	Baseline float64
	// MaxTemp caps the stimulation target the firmware will accept.
	MaxTemp float64
	// TriggerIn arms the external trigger input to launch stimulations.
	TriggerIn bool
	// Beep sounds the buzzer before each fired stimulation.
	Beep bool
	// Log receives session events; nil means no logging.
	Log *logger.Logger
}

// StimRequest describes one stimulation to arm.
type StimRequest struct {
	Target     float64       // target temperature, degrees C
	RiseRate   float64       // degrees per second
	ReturnRate float64       // degrees per second
	Duration   time.Duration // raw duration, interpreted per Mode
	Mode       timing.Mode
	// TriggerCode and TriggerDuration describe the trigger-out pulse in
	// offline protocol files; the live console has no command for them.
	TriggerCode     int
	TriggerDuration time.Duration
	Surfaces        surface.Set
}

// StimParams is an armed stimulation: the request plus its resolved phase
// durations. SetStim returns it and the fire methods take it back, so the
// pairing between armed parameters and a fired stimulation is explicit.
type StimParams struct {
	StimRequest
	Phases timing.Phases
}

// Session owns the transport to one stimulator. Not safe for concurrent
// use: a second caller issuing commands during an active sampling loop
// would corrupt the response stream.
type Session struct {
	t        Transport
	log      *logger.Logger
	baseline float64
	maxTemp  float64
	beep     bool
	now      func() time.Time
}

// NewSession configures the stimulator behind t: baseline, maximum
// temperature, display mute, and the trigger-in setting are transmitted
// immediately.
//
// A returned *RangeWarning means a temperature is outside its documented
// range; the session is connected and usable regardless, matching the
// permissive firmware. Any other error means configuration failed.
func NewSession(t Transport, opts Options) (*Session, error) {
	s := &Session{
		t:        t,
		log:      opts.Log,
		baseline: opts.Baseline,
		maxTemp:  opts.MaxTemp,
		beep:     opts.Beep,
		now:      time.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}

	warn := checkRange("baseline temperature", opts.Baseline, BaselineMin, BaselineMax)
	if warn == nil {
		warn = checkRange("max temperature", opts.MaxTemp, MaxTempMin, MaxTempMax)
	}
	if warn != nil {
		s.log.Warnw("configuration out of range", "warning", warn.Error())
	}

	cmds := make([]string, 0, 4)
	nc, err := baselineCommand(opts.Baseline)
	if err != nil {
		return nil, err
	}
	cmds = append(cmds, nc)

	mc, err := maxTempCommand(opts.MaxTemp)
	if err != nil {
		return nil, err
	}
	cmds = append(cmds, mc, cmdMute)

	if opts.TriggerIn {
		cmds = append(cmds, cmdTriggerInEnable)
	} else {
		cmds = append(cmds, cmdTriggerInDisable)
	}

	for _, c := range cmds {
		if err := s.send("configure", c); err != nil {
			return nil, err
		}
	}

	s.log.Infow("session configured",
		"baseline", opts.Baseline, "max_temp", opts.MaxTemp, "trigger_in", opts.TriggerIn)

	if warn != nil {
		return s, warn
	}
	return s, nil
}

// SetBaseline re-transmits the baseline temperature. A *RangeWarning is
// returned for out-of-range values after the command has been sent.
func (s *Session) SetBaseline(degC float64) error {
	warn := checkRange("baseline temperature", degC, BaselineMin, BaselineMax)
	if warn != nil {
		s.log.Warnw("configuration out of range", "warning", warn.Error())
	}

	c, err := baselineCommand(degC)
	if err != nil {
		return err
	}
	if err := s.send("set baseline", c); err != nil {
		return err
	}
	s.baseline = degC

	if warn != nil {
		return warn
	}
	return nil
}

// SetMaxTemp re-transmits the maximum stimulation temperature, with the
// same warning semantics as SetBaseline.
func (s *Session) SetMaxTemp(degC float64) error {
	warn := checkRange("max temperature", degC, MaxTempMin, MaxTempMax)
	if warn != nil {
		s.log.Warnw("configuration out of range", "warning", warn.Error())
	}

	c, err := maxTempCommand(degC)
	if err != nil {
		return err
	}
	if err := s.send("set max temperature", c); err != nil {
		return err
	}
	s.maxTemp = degC

	if warn != nil {
		return warn
	}
	return nil
}

// SetStim resolves the request against the current baseline and arms the
// stimulator: target temperature, rise and return rates, effective
// duration, and the surface enable mask are transmitted. The returned
// StimParams must be passed to Trigger or TriggerAndSample.
func (s *Session) SetStim(req StimRequest) (StimParams, error) {
	if req.TriggerCode < 0 || req.TriggerCode > 255 {
		return StimParams{}, fmt.Errorf("trigger code %d out of range 0-255", req.TriggerCode)
	}

	phases, err := timing.Resolve(req.Target, s.baseline, req.RiseRate, req.ReturnRate, req.Duration, req.Mode)
	if err != nil {
		return StimParams{}, err
	}

	tc, err := targetTempCommand(req.Target)
	if err != nil {
		return StimParams{}, err
	}
	rc, err := riseRateCommand(req.RiseRate)
	if err != nil {
		return StimParams{}, err
	}
	bc, err := returnRateCommand(req.ReturnRate)
	if err != nil {
		return StimParams{}, err
	}
	dc, err := durationCommand(int(phases.Effective.Milliseconds()))
	if err != nil {
		return StimParams{}, err
	}
	sc, err := surfacesCommand(req.Surfaces)
	if err != nil {
		return StimParams{}, err
	}

	for _, c := range []string{tc, rc, bc, dc, sc} {
		if err := s.send("set stimulation", c); err != nil {
			return StimParams{}, err
		}
	}

	s.log.Infow("stimulation armed",
		"target", req.Target, "mode", req.Mode.String(),
		"effective_ms", phases.Effective.Milliseconds(),
		"total_ms", phases.Total.Milliseconds(),
		"surfaces", req.Surfaces.String())

	return StimParams{StimRequest: req, Phases: phases}, nil
}

// Trigger fires the armed stimulation and returns immediately; the device
// runs the ramps on its own. Completion is not tracked here — use
// TriggerAndSample to follow the stimulation.
func (s *Session) Trigger(p StimParams) error {
	return s.fire(p)
}

// TriggerAndSample fires the armed stimulation, then polls the device for
// current temperatures until the stimulation span plus tailOffset has
// elapsed. One command/response exchange per sample bounds the poll rate;
// there is no fixed timer. The call blocks for the whole stimulation.
func (s *Session) TriggerAndSample(p StimParams, tailOffset time.Duration) (SampleMatrix, error) {
	if err := s.fire(p); err != nil {
		return nil, err
	}

	deadline := p.Phases.Total + tailOffset
	start := s.now()
	var matrix SampleMatrix

	for s.now().Sub(start) < deadline {
		if err := s.t.Write([]byte(cmdReadTemps)); err != nil {
			return nil, &CommError{Op: "temperature poll", Err: err}
		}
		line, err := s.t.ReadLine()
		if err != nil {
			return nil, &CommError{Op: "temperature poll", Err: err}
		}
		r, err := parseReading(line, s.now())
		if err != nil {
			return nil, err
		}
		matrix = append(matrix, r)
	}

	s.log.Infow("sampling complete", "samples", len(matrix), "span", deadline.String())
	return matrix, nil
}

// ReadTemperatures performs a single temperature poll outside any
// stimulation, discarding stale input first.
func (s *Session) ReadTemperatures() (Reading, error) {
	if err := s.t.Flush(); err != nil {
		return Reading{}, &CommError{Op: "read temperatures", Err: err}
	}
	if err := s.t.Write([]byte(cmdReadTemps)); err != nil {
		return Reading{}, &CommError{Op: "read temperatures", Err: err}
	}
	line, err := s.t.ReadLine()
	if err != nil {
		return Reading{}, &CommError{Op: "read temperatures", Err: err}
	}
	return parseReading(line, s.now())
}

// Beep sounds the buzzer. Duration is in 10ms units, frequency in 10Hz
// units.
func (s *Session) Beep(dur, freq int) error {
	c, err := buzzerCommand(dur, freq)
	if err != nil {
		return err
	}
	return s.send("beep", c)
}

// Abort stops the current stimulation and returns the probe to the
// neutral temperature.
func (s *Session) Abort() error {
	return s.send("abort", cmdAbort)
}

// Reset power-cycles the stimulator.
func (s *Session) Reset() error {
	s.log.Infow("resetting stimulator")
	return s.send("reset", cmdReset)
}

// RawCommand transmits an arbitrary console command. Escape hatch for the
// parts of the command vocabulary without a dedicated method.
func (s *Session) RawCommand(cmd string) error {
	return s.send("raw command", cmd)
}

// Baseline returns the most recently transmitted baseline temperature.
func (s *Session) Baseline() float64 {
	return s.baseline
}

// Close closes the underlying transport. The session must not be used
// afterwards.
func (s *Session) Close() error {
	return s.t.Close()
}

// fire optionally beeps, then transmits the fire command.
func (s *Session) fire(p StimParams) error {
	if s.beep {
		// 100ms at 1kHz, the conventional stimulation-onset beep.
		if err := s.Beep(10, 100); err != nil {
			return err
		}
	}
	if err := s.send("fire", cmdFire); err != nil {
		return err
	}
	s.log.Debugw("stimulation fired", "trigger_code", p.TriggerCode)
	return nil
}

// send writes one command, wrapping failures with the operation name.
func (s *Session) send(op, cmd string) error {
	s.log.Debugw("command", "op", op, "cmd", cmd)
	if err := s.t.Write([]byte(cmd)); err != nil {
		return &CommError{Op: op, Err: err}
	}
	return nil
}

func checkRange(field string, v, min, max float64) *RangeWarning {
	if v < min || v > max {
		return &RangeWarning{Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}
