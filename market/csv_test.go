package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBarsCSV(t *testing.T) {
	t.Parallel()

	in := `time,open,high,low,close,volume
2024-01-02T00:00:00Z,1.1000,1.1010,1.0990,1.1005,120
2024-01-02T01:00:00Z,1.1005,1.1050,1.1000,1.1045

1704164400,1.1045,1.1060,1.1040,1.1050,90
2024-01-02T03:00:00Z,1.1
`
	bars, err := ReadBarsCSV(strings.NewReader(in), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 1.1005, bars[0].Close)
	assert.Equal(t, 120.0, bars[0].Volume)
	assert.Zero(t, bars[1].Volume)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC), bars[2].Time)
}

func TestReadBarsCSVRange(t *testing.T) {
	t.Parallel()

	in := `2024-01-02T00:00:00Z,1,1,1,1
2024-01-02T01:00:00Z,2,2,2,2
2024-01-02T02:00:00Z,3,3,3,3
`
	from := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC)

	bars, err := ReadBarsCSV(strings.NewReader(in), from, to)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2.0, bars[0].Open)
}

func TestReadBarsCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"bad time", "yesterday,1,1,1,1\n"},
		{"bad open", "2024-01-02T00:00:00Z,x,1,1,1\n"},
		{"bad volume", "2024-01-02T00:00:00Z,1,1,1,1,lots\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadBarsCSV(strings.NewReader(tt.in), time.Time{}, time.Time{})
			assert.Error(t, err)
		})
	}
}
