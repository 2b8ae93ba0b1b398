package tcs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurostim/gotcs/pkg/surface"
	"github.com/neurostim/gotcs/pkg/timing"
)

func newTestSession(t *testing.T, opts Options) (*Session, *MockTransport) {
	t.Helper()
	mock := NewMock()
	s, err := NewSession(mock, opts)
	require.NoError(t, err)
	return s, mock
}

func defaultOptions() Options {
	return Options{Baseline: 30, MaxTemp: 50, TriggerIn: true}
}

func TestNewSessionCommandSequence(t *testing.T) {
	_, mock := newTestSession(t, defaultOptions())
	assert.Equal(t, []string{"N300", "Om500", "F", "Ose"}, mock.Commands())
}

func TestNewSessionTriggerInDisabled(t *testing.T) {
	opts := defaultOptions()
	opts.TriggerIn = false
	_, mock := newTestSession(t, opts)
	assert.Equal(t, "Osd", mock.Commands()[3])
}

func TestNewSessionRangeWarning(t *testing.T) {
	mock := NewMock()
	opts := defaultOptions()
	opts.Baseline = 50 // above the documented 30-45 range

	s, err := NewSession(mock, opts)
	require.Error(t, err)

	var w *RangeWarning
	require.ErrorAs(t, err, &w)
	assert.Equal(t, "baseline temperature", w.Field)
	assert.Equal(t, 50.0, w.Value)

	// The session is usable and the command was still transmitted.
	require.NotNil(t, s)
	assert.Equal(t, "N500", mock.Commands()[0])
}

func TestSetBaseline(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())

	require.NoError(t, s.SetBaseline(32))
	assert.Equal(t, "N320", mock.Commands()[len(mock.Commands())-1])
	assert.Equal(t, 32.0, s.Baseline())

	// Out of range: warning returned, command still sent.
	err := s.SetBaseline(20)
	var w *RangeWarning
	require.ErrorAs(t, err, &w)
	assert.Equal(t, "N200", mock.Commands()[len(mock.Commands())-1])
	assert.Equal(t, 20.0, s.Baseline())
}

func TestSetMaxTemp(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())

	require.NoError(t, s.SetMaxTemp(55))
	assert.Equal(t, "Om550", mock.Commands()[len(mock.Commands())-1])

	err := s.SetMaxTemp(70)
	var w *RangeWarning
	require.ErrorAs(t, err, &w)
}

func TestSetStim(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())

	p, err := s.SetStim(StimRequest{
		Target:          42,
		RiseRate:        3,
		ReturnRate:      3,
		Duration:        10 * time.Second,
		Mode:            timing.FixedPlateau,
		TriggerCode:     255,
		TriggerDuration: 10 * time.Millisecond,
		Surfaces:        surface.All(),
	})
	require.NoError(t, err)

	// baseline 30, target 42, 3 deg/s: rise 4s, effective 14s.
	assert.Equal(t, 4*time.Second, p.Phases.Rise)
	assert.Equal(t, 14*time.Second, p.Phases.Effective)
	assert.Equal(t, 18*time.Second, p.Phases.Total)

	cmds := mock.Commands()
	assert.Equal(t, []string{"C0420", "V00030", "R00030", "D014000", "S11111"}, cmds[4:])
}

func TestSetStimSurfaceSubset(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())

	_, err := s.SetStim(StimRequest{
		Target:     45,
		RiseRate:   10,
		ReturnRate: 10,
		Duration:   2 * time.Second,
		Mode:       timing.FixedStim,
		Surfaces:   surface.Of(2, 4),
	})
	require.NoError(t, err)

	cmds := mock.Commands()
	assert.Equal(t, "S01010", cmds[len(cmds)-1])
}

func TestSetStimRejectsBadConfig(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())
	before := len(mock.Commands())

	// Target below baseline.
	_, err := s.SetStim(StimRequest{
		Target: 25, RiseRate: 3, ReturnRate: 3,
		Duration: time.Second, Mode: timing.FixedStim, Surfaces: surface.All(),
	})
	assert.Error(t, err)

	// fixed_total shorter than the return ramp.
	_, err = s.SetStim(StimRequest{
		Target: 42, RiseRate: 3, ReturnRate: 3,
		Duration: 3 * time.Second, Mode: timing.FixedTotal, Surfaces: surface.All(),
	})
	var nde *timing.NegativeDurationError
	assert.ErrorAs(t, err, &nde)

	// Trigger code out of range.
	_, err = s.SetStim(StimRequest{
		Target: 42, RiseRate: 3, ReturnRate: 3,
		Duration: time.Second, Mode: timing.FixedStim,
		TriggerCode: 300, Surfaces: surface.All(),
	})
	assert.Error(t, err)

	// Nothing was transmitted for any rejected request.
	assert.Len(t, mock.Commands(), before)
}

func TestTrigger(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())
	p := armStim(t, s)

	require.NoError(t, s.Trigger(p))
	cmds := mock.Commands()
	assert.Equal(t, "L", cmds[len(cmds)-1])
}

func TestTriggerWithBeep(t *testing.T) {
	opts := defaultOptions()
	opts.Beep = true
	s, mock := newTestSession(t, opts)
	p := armStim(t, s)

	require.NoError(t, s.Trigger(p))
	cmds := mock.Commands()
	assert.Equal(t, "Z010100", cmds[len(cmds)-2])
	assert.Equal(t, "L", cmds[len(cmds)-1])
}

// armStim arms a 1s fixed_stim stimulation with a 500ms return ramp
// (total 1.5s) and returns its parameters.
func armStim(t *testing.T, s *Session) StimParams {
	t.Helper()
	p, err := s.SetStim(StimRequest{
		Target:     40,
		RiseRate:   20,
		ReturnRate: 20,
		Duration:   time.Second,
		Mode:       timing.FixedStim,
		Surfaces:   surface.All(),
	})
	require.NoError(t, err)
	return p
}

// fakeClock advances a fixed step on every call to now().
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestTriggerAndSample(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())
	p := armStim(t, s) // total 1.5s

	mock.Respond(func(cmd string) (string, bool) {
		if cmd == cmdReadTemps {
			return "300+310+320+330+340+350\r\n", true
		}
		return "", false
	})

	// The clock advances 100ms on every observation (loop check plus one
	// sample timestamp per poll), so the 2s deadline terminates the loop
	// after a deterministic number of polls.
	clock := &fakeClock{t: time.Unix(1700000000, 0), step: 100 * time.Millisecond}
	s.now = clock.now

	matrix, err := s.TriggerAndSample(p, 500*time.Millisecond)
	require.NoError(t, err)
	require.NotEmpty(t, matrix)

	// Every sample has the full six temperature fields, converted from
	// tenths of a degree.
	for _, r := range matrix {
		assert.Equal(t, [ReadingFields]float64{30, 31, 32, 33, 34, 35}, r.Temps)
	}

	// The loop terminated: elapsed fake time passed total+tail (2s).
	cmds := mock.Commands()
	assert.Equal(t, cmdReadTemps, cmds[len(cmds)-1])
	assert.Equal(t, "L", cmds[len(cmds)-1-len(matrix)])
}

func TestTriggerAndSampleDecodeError(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())
	p := armStim(t, s)

	mock.Respond(func(cmd string) (string, bool) {
		if cmd == cmdReadTemps {
			return "300+garbage+320+330+340+350", true
		}
		return "", false
	})

	_, err := s.TriggerAndSample(p, 0)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestTriggerAndSampleReadFailure(t *testing.T) {
	s, _ := newTestSession(t, defaultOptions())
	p := armStim(t, s)

	// No responder: ReadLine fails, surfaced as a CommError.
	_, err := s.TriggerAndSample(p, 0)
	var ce *CommError
	require.ErrorAs(t, err, &ce)
}

func TestReadTemperatures(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())
	mock.QueueLine("stale response that must be flushed")
	mock.Respond(func(cmd string) (string, bool) {
		if cmd == cmdReadTemps {
			return "305+306+307+308+309+310", true
		}
		return "", false
	})

	r, err := s.ReadTemperatures()
	require.NoError(t, err)
	assert.Equal(t, 30.5, r.Neutral())
	assert.Equal(t, 31.0, r.Zone(5))
	assert.Equal(t, 1, mock.Flushes())
}

func TestAbortResetRawCommand(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())

	require.NoError(t, s.Abort())
	require.NoError(t, s.Reset())
	require.NoError(t, s.RawCommand("B"))

	cmds := mock.Commands()
	assert.Equal(t, []string{"A", "Oc", "B"}, cmds[len(cmds)-3:])
}

func TestCommErrorOnClosedTransport(t *testing.T) {
	s, _ := newTestSession(t, defaultOptions())
	require.NoError(t, s.Close())

	err := s.SetBaseline(31)
	var ce *CommError
	require.ErrorAs(t, err, &ce)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestBeepEncoding(t *testing.T) {
	s, mock := newTestSession(t, defaultOptions())

	require.NoError(t, s.Beep(50, 44))
	cmds := mock.Commands()
	assert.Equal(t, "Z050044", cmds[len(cmds)-1])

	assert.Error(t, s.Beep(1000, 100))
}
