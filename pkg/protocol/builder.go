// Package protocol authors step scripts for the TCS control console.
//
// A protocol file is a line-oriented key=value document the console can
// replay without a host computer: a global header, then one block per step
// (stimulation, wait-for-trigger, baseline change, constant-temperature
// hold), with per-zone parameter blocks inside stimulation steps. The
// builder accumulates steps in memory and serializes on demand; the
// step-count header is patched in at export time.
package protocol

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/neurostim/gotcs/pkg/surface"
	"github.com/neurostim/gotcs/pkg/timing"
)

// FileSuffix is appended to the protocol name to form the output filename.
const FileSuffix = ".protocol.ini"

// Builder accumulates protocol steps. Append-only; one caller at a time.
type Builder struct {
	name               string
	recordTemperatures bool
	steps              int
	lines              []string
}

// Option adjusts builder construction.
type Option func(*Builder)

// WithoutTemperatureRecording disables the console's temperature logging
// for this protocol.
func WithoutTemperatureRecording() Option {
	return func(b *Builder) { b.recordTemperatures = false }
}

// New creates a builder for the named protocol. The name becomes the
// output filename stem: New("heat42") writes "heat42.protocol.ini".
func New(name string, opts ...Option) *Builder {
	b := &Builder{
		name:               name,
		recordTemperatures: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Steps returns the number of steps appended so far.
func (b *Builder) Steps() int {
	return b.steps
}

// StimStep describes one stimulation step.
type StimStep struct {
	Target     float64       // target temperature, degrees C
	RiseRate   float64       // degrees per second
	ReturnRate float64       // degrees per second
	Duration   time.Duration // raw duration, interpreted per Mode
	Mode       timing.Mode
	Baseline   float64       // baseline the console ramps from
	Wait       time.Duration // per-zone onset offset
	Zones      surface.Set
	// TriggerCode and TriggerDuration describe the trigger-out pulse the
	// console emits at stimulation onset.
	TriggerCode     int
	TriggerDuration time.Duration
}

// AddStimulation appends a STIMULATE step. The raw duration is resolved to
// the console's rise+plateau convention before being written; every one of
// the five physical zones gets a parameter block, enabled or not.
func (b *Builder) AddStimulation(s StimStep) error {
	if err := s.Zones.Validate(); err != nil {
		return err
	}
	phases, err := timing.Resolve(s.Target, s.Baseline, s.RiseRate, s.ReturnRate, s.Duration, s.Mode)
	if err != nil {
		return err
	}

	n := b.nextStep()
	b.appendf("[step%d]", n)
	b.appendf("stepType=0")
	b.appendf("stepTypeText=STIMULATE")
	b.blank()
	b.appendf("[step%d_stimulation]", n)
	b.appendf("baseline=%.3f", s.Baseline)
	b.appendf("triggerVal=%d", s.TriggerCode)
	b.appendf("triggerDur=%.3f", s.TriggerDuration.Seconds())
	b.blank()

	for z := 1; z <= surface.Count; z++ {
		b.appendf("[step%d_zone%d]", n, z)
		if s.Zones.Contains(z) {
			b.appendf("enabled=1")
		} else {
			b.appendf("enabled=0")
		}
		b.appendf("duration=%.3f", phases.Effective.Seconds())
		b.appendf("wait=%.3f", s.Wait.Seconds())
		b.appendf("temperature=%.3f", s.Target)
		b.appendf("speed=%.3f", s.RiseRate)
		b.appendf("return=%.3f", s.ReturnRate)
		// Single-point placeholder ramp profile; point-to-point mode off.
		b.appendf("pointToPointEnabled=0")
		b.appendf("nbrPts=1")
		b.appendf("sec1=1.000")
		b.appendf("deg1=30.000")
		b.blank()
	}
	return nil
}

// AddWaitTriggerIn appends a WAIT step that blocks the protocol until one
// external trigger arrives.
func (b *Builder) AddWaitTriggerIn() {
	n := b.nextStep()
	b.appendf("[step%d]", n)
	b.appendf("stepType=2")
	b.appendf("stepTypeText=WAIT")
	b.appendf("typeWait=3")
	b.appendf("typeWaitText=WAIT_TRIGGER")
	b.appendf("number=1")
	b.blank()
}

// SetBaseline appends a BASELINE step changing the resting temperature.
func (b *Builder) SetBaseline(degC float64, adjustToSkin bool) {
	n := b.nextStep()
	b.appendf("[step%d]", n)
	b.appendf("stepType=6")
	b.appendf("stepTypeText=BASELINE")
	b.appendf("baseline=%.3f", degC)
	if adjustToSkin {
		b.appendf("adjustToSkin=1")
	} else {
		b.appendf("adjustToSkin=0")
	}
	b.blank()
}

// SetConstantTemp appends a SET_CONST_TEMP step holding the requested
// zones at one temperature. Each of the five physical zones gets its
// enable, temperature, speed and hold fields.
func (b *Builder) SetConstantTemp(degC float64, hold time.Duration, speed float64, zones surface.Set) error {
	if err := zones.Validate(); err != nil {
		return err
	}

	n := b.nextStep()
	b.appendf("[step%d]", n)
	b.appendf("stepType=8")
	b.appendf("stepTypeText=SET_CONST_TEMP")
	for z := 1; z <= surface.Count; z++ {
		b.appendf("constTemp%d=%.3f", z, degC)
		b.appendf("constTempSpeed%d=%.3f", z, speed)
		if zones.Contains(z) {
			b.appendf("enableConsTemp%d=1", z)
		} else {
			b.appendf("enableConsTemp%d=0", z)
		}
		b.appendf("ConstTempHold%d=%.3f", z, hold.Seconds())
	}
	b.blank()
	return nil
}

// Plan is the bulk-authoring input for GenerateFromLists. Per-trial
// parameters accept a scalar (broadcast to every trial) or an explicit
// per-trial list; the rest are global.
type Plan struct {
	Temperatures Param[float64]
	Durations    Param[time.Duration]
	Zones        Param[surface.Set]
	RiseRates    Param[float64]
	ReturnRates  Param[float64]
	TriggerCodes Param[int]

	Baseline        float64
	Wait            time.Duration
	TriggerDuration time.Duration
	Mode            timing.Mode

	// Trials is required when Temperatures is a scalar; otherwise the
	// temperature list fixes the trial count.
	Trials int
}

// GenerateFromLists appends one wait-for-trigger step followed by one
// stimulation step per trial. All parameters are validated up front: on
// error the builder is left untouched.
func (b *Builder) GenerateFromLists(p Plan) error {
	n := p.Trials
	if p.Temperatures.IsPerTrial() {
		n = p.Temperatures.Len()
	} else if n <= 0 {
		return fmt.Errorf("trial count required when temperature is a scalar")
	}

	temps, err := p.Temperatures.resolve("temperatures", n)
	if err != nil {
		return err
	}
	durations, err := p.Durations.resolve("durations", n)
	if err != nil {
		return err
	}
	zones, err := p.Zones.resolve("zones", n)
	if err != nil {
		return err
	}
	riseRates, err := p.RiseRates.resolve("rise rates", n)
	if err != nil {
		return err
	}
	returnRates, err := p.ReturnRates.resolve("return rates", n)
	if err != nil {
		return err
	}
	codes, err := p.TriggerCodes.resolve("trigger codes", n)
	if err != nil {
		return err
	}

	steps := make([]StimStep, n)
	for i := 0; i < n; i++ {
		steps[i] = StimStep{
			Target:          temps[i],
			RiseRate:        riseRates[i],
			ReturnRate:      returnRates[i],
			Duration:        durations[i],
			Mode:            p.Mode,
			Baseline:        p.Baseline,
			Wait:            p.Wait,
			Zones:           zones[i],
			TriggerCode:     codes[i],
			TriggerDuration: p.TriggerDuration,
		}
		// Resolve every trial before mutating the builder.
		if err := steps[i].Zones.Validate(); err != nil {
			return fmt.Errorf("trial %d: %w", i+1, err)
		}
		if _, err := timing.Resolve(steps[i].Target, steps[i].Baseline,
			steps[i].RiseRate, steps[i].ReturnRate, steps[i].Duration, steps[i].Mode); err != nil {
			return fmt.Errorf("trial %d: %w", i+1, err)
		}
	}

	for _, s := range steps {
		b.AddWaitTriggerIn()
		if err := b.AddStimulation(s); err != nil {
			return err
		}
	}
	return nil
}

// Export serializes the protocol: the global header with the final step
// count, then every accumulated step block. Calling it twice without
// intervening appends produces identical bytes.
func (b *Builder) Export(w io.Writer) error {
	header := []string{
		"[protocol]",
		fmt.Sprintf("stepsNumber=%d", b.steps),
		fmt.Sprintf("recordTemperatures=%d", boolToInt(b.recordTemperatures)),
		"",
	}
	for _, line := range header {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write protocol header: %w", err)
		}
	}
	for _, line := range b.lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write protocol body: %w", err)
		}
	}
	return nil
}

// WriteFile exports the protocol to "<name>.protocol.ini".
func (b *Builder) WriteFile() error {
	f, err := os.Create(b.name + FileSuffix)
	if err != nil {
		return fmt.Errorf("failed to create protocol file: %w", err)
	}
	if err := b.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close protocol file: %w", err)
	}
	return nil
}

func (b *Builder) nextStep() int {
	b.steps++
	return b.steps
}

func (b *Builder) appendf(format string, args ...any) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func (b *Builder) blank() {
	b.lines = append(b.lines, "")
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
