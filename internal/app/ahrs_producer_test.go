package app

import (
	"testing"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prdid(pitch, roll, heading float64) nmea.PRDID {
	return nmea.PRDID{
		BaseSentence: nmea.BaseSentence{Talker: "P", Type: nmea.TypePRDID},
		Pitch:        pitch,
		Roll:         roll,
		Heading:      heading,
	}
}

func TestAttitudeFromSentence(t *testing.T) {
	t.Parallel()

	sample, ok := attitudeFromSentence(prdid(-1.5, 2.25, 181.0), "attitude", 3)
	require.True(t, ok)

	assert.Equal(t, "attitude", sample.Sensor)
	if diff := cmp.Diff([]float64{-1.5, 2.25, 181.0}, sample.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, sample.Time)
}

func TestAttitudeFromSentenceTrimsToAxisCount(t *testing.T) {
	t.Parallel()

	// A 2-axis attitude track keeps pitch and roll, heading is dropped.
	sample, ok := attitudeFromSentence(prdid(-1.5, 2.25, 181.0), "attitude", 2)
	require.True(t, ok)

	if diff := cmp.Diff([]float64{-1.5, 2.25}, sample.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestAttitudeFromSentenceSkipsOtherTypes(t *testing.T) {
	t.Parallel()

	rmc := nmea.RMC{
		BaseSentence: nmea.BaseSentence{Talker: "GP", Type: nmea.TypeRMC},
	}
	_, ok := attitudeFromSentence(rmc, "attitude", 3)
	assert.False(t, ok)
}
