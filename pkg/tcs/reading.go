package tcs

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/neurostim/gotcs/pkg/surface"
)

// ReadingFields is the number of temperature fields per response line:
// the neutral reference plus the five zones.
const ReadingFields = surface.Count + 1

// Reading is one temperature sample in degrees Celsius.
type Reading struct {
	// Time the sample was received by the host.
	Time time.Time
	// Temps holds neutral first, then zones 1 through 5.
	Temps [ReadingFields]float64
}

// Neutral returns the neutral reference temperature.
func (r Reading) Neutral() float64 {
	return r.Temps[0]
}

// Zone returns the temperature of zone z (1 to 5).
func (r Reading) Zone(z int) float64 {
	return r.Temps[z]
}

// SampleMatrix is the ordered sequence of readings captured during one
// stimulation. It is not modified after the sampling loop returns.
type SampleMatrix []Reading

// WriteCSV writes the matrix with one row per sample: elapsed seconds since
// the first sample, neutral, then zones 1 through 5.
func (m SampleMatrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"elapsed_s", "neutral", "zone1", "zone2", "zone3", "zone4", "zone5"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	var start time.Time
	if len(m) > 0 {
		start = m[0].Time
	}
	row := make([]string, ReadingFields+1)
	for _, r := range m {
		row[0] = strconv.FormatFloat(r.Time.Sub(start).Seconds(), 'f', 3, 64)
		for i, v := range r.Temps {
			row[i+1] = strconv.FormatFloat(v, 'f', 1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeError indicates a temperature response line that could not be
// parsed.
type DecodeError struct {
	Line   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed temperature response %q: %s", e.Line, e.Reason)
}

// parseReading decodes one "E" response: six '+'-delimited integers in
// tenths of a degree, neutral first.
func parseReading(line string, at time.Time) (Reading, error) {
	trimmed := strings.TrimRight(line, "\r\n")
	parts := strings.Split(trimmed, "+")
	if len(parts) != ReadingFields {
		return Reading{}, &DecodeError{
			Line:   trimmed,
			Reason: fmt.Sprintf("expected %d '+'-delimited fields, got %d", ReadingFields, len(parts)),
		}
	}

	r := Reading{Time: at}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Reading{}, &DecodeError{
				Line:   trimmed,
				Reason: fmt.Sprintf("field %d is not numeric: %q", i, p),
			}
		}
		r.Temps[i] = v / 10
	}
	return r, nil
}
