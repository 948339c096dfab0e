package location

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sentenceGGA         = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	sentenceRMC         = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	sentenceVTG         = "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48"
	sentenceGGANoFix    = "$GPGGA,123520,,,,,0,00,,,M,,M,,*61"
	sentenceRMCNoFix    = "$GPRMC,123520,V,,,,,,,230394,,*39"
	sentenceBadChecksum = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*00"
)

func TestTracker_Feed_GGA(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Feed(sentenceGGA))

	fix, ok := tracker.Fix()
	require.True(t, ok)
	assert.InDelta(t, 48.1173, fix.Latitude, 1e-4)
	assert.InDelta(t, 11.5167, fix.Longitude, 1e-4)
	assert.Equal(t, "1", fix.FixQuality)
	assert.Equal(t, int64(8), fix.Satellites)
	assert.InDelta(t, 0.9, fix.HDOP, 1e-9)
	assert.InDelta(t, 545.4, fix.Altitude, 1e-9)
	assert.True(t, fix.FixTime.IsZero(), "no date has been seen yet")
}

func TestTracker_Feed_CombinesSentences(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Feed(sentenceRMC))
	fix, ok := tracker.Fix()
	require.True(t, ok)
	assert.InDelta(t, 22.4, fix.SpeedKnots, 1e-9)
	assert.InDelta(t, 84.4, fix.Course, 1e-9)
	assert.Equal(t, time.Date(1994, 3, 23, 12, 35, 19, 0, time.UTC), fix.FixTime)

	require.NoError(t, tracker.Feed(sentenceGGA))
	require.NoError(t, tracker.Feed(sentenceVTG))
	fix, _ = tracker.Fix()
	assert.InDelta(t, 5.5, fix.SpeedKnots, 1e-9)
	assert.InDelta(t, 54.7, fix.Course, 1e-9)
	assert.Equal(t, int64(8), fix.Satellites)
	assert.Equal(t, uint64(3), tracker.Updates())
}

func TestTracker_Feed_IgnoresInvalidFixes(t *testing.T) {
	tracker := NewTracker()

	_ = tracker.Feed(sentenceGGANoFix)
	_ = tracker.Feed(sentenceRMCNoFix)

	_, ok := tracker.Fix()
	assert.False(t, ok)
}

func TestTracker_Feed_CountsParseErrors(t *testing.T) {
	tracker := NewTracker()

	assert.Error(t, tracker.Feed("garbage"))
	assert.Error(t, tracker.Feed(sentenceBadChecksum))
	assert.NoError(t, tracker.Feed("   "))

	assert.Equal(t, uint64(2), tracker.ParseErrors())
	_, ok := tracker.Fix()
	assert.False(t, ok)
}

func TestTracker_Consume(t *testing.T) {
	tracker := NewTracker()
	stream := strings.Join([]string{"garbage", sentenceGGA, sentenceRMC, ""}, "\r\n")

	var skipped []string
	err := tracker.Consume(strings.NewReader(stream), func(line string, err error) {
		skipped = append(skipped, line)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"garbage"}, skipped)
	fix, ok := tracker.Fix()
	require.True(t, ok)
	assert.False(t, fix.FixTime.IsZero())
}
