package tcs

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		name    string
		line    string
		want    [ReadingFields]float64
		wantErr bool
	}{
		{
			name: "valid line",
			line: "300+310+320+330+340+350",
			want: [ReadingFields]float64{30.0, 31.0, 32.0, 33.0, 34.0, 35.0},
		},
		{
			name: "valid line with terminators",
			line: "300+310+320+330+340+350\r\n",
			want: [ReadingFields]float64{30.0, 31.0, 32.0, 33.0, 34.0, 35.0},
		},
		{
			name: "tenths resolution",
			line: "305+424+301+300+299+312",
			want: [ReadingFields]float64{30.5, 42.4, 30.1, 30.0, 29.9, 31.2},
		},
		{
			name:    "too few fields",
			line:    "300+310+320",
			wantErr: true,
		},
		{
			name:    "too many fields",
			line:    "300+310+320+330+340+350+360",
			wantErr: true,
		},
		{
			name:    "non-numeric field",
			line:    "300+abc+320+330+340+350",
			wantErr: true,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReading(tt.line, at)
			if tt.wantErr {
				require.Error(t, err)
				var de *DecodeError
				assert.ErrorAs(t, err, &de)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Temps)
			assert.Equal(t, at, got.Time)
		})
	}
}

func TestReadingAccessors(t *testing.T) {
	r := Reading{Temps: [ReadingFields]float64{30.0, 31.0, 32.0, 33.0, 34.0, 35.0}}
	assert.Equal(t, 30.0, r.Neutral())
	assert.Equal(t, 31.0, r.Zone(1))
	assert.Equal(t, 35.0, r.Zone(5))
}

func TestSampleMatrixWriteCSV(t *testing.T) {
	start := time.Unix(1700000000, 0)
	m := SampleMatrix{
		{Time: start, Temps: [ReadingFields]float64{30, 30, 30, 30, 30, 30}},
		{Time: start.Add(100 * time.Millisecond), Temps: [ReadingFields]float64{30, 35.5, 30, 30, 30, 30}},
	}

	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "elapsed_s,neutral,zone1,zone2,zone3,zone4,zone5", lines[0])
	assert.Equal(t, "0.000,30.0,30.0,30.0,30.0,30.0,30.0", lines[1])
	assert.Equal(t, "0.100,30.0,35.5,30.0,30.0,30.0,30.0", lines[2])
}

func TestSampleMatrixWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SampleMatrix{}.WriteCSV(&buf))
	assert.Equal(t, "elapsed_s,neutral,zone1,zone2,zone3,zone4,zone5\n", buf.String())
}
