package location

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
)

// Tracker folds a stream of NMEA sentences into the latest fix. GGA carries
// position quality, RMC position with date and speed, VTG speed and course.
// It is safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	fix         Fix
	hasFix      bool
	date        nmea.Date
	updates     uint64
	parseErrors uint64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Feed parses one sentence. Sentences other than GGA, RMC and VTG are ignored.
func (t *Tracker) Feed(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		t.mu.Lock()
		t.parseErrors++
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch s := sentence.(type) {
	case nmea.GGA:
		if s.FixQuality == nmea.Invalid {
			return nil
		}
		t.fix.Latitude = s.Latitude
		t.fix.Longitude = s.Longitude
		t.fix.FixQuality = s.FixQuality
		t.fix.Satellites = s.NumSatellites
		t.fix.HDOP = s.HDOP
		t.fix.Altitude = s.Altitude
		t.setTime(s.Time)
		t.hasFix = true
		t.updates++
	case nmea.RMC:
		if s.Validity != nmea.ValidRMC {
			return nil
		}
		t.fix.Latitude = s.Latitude
		t.fix.Longitude = s.Longitude
		t.fix.SpeedKnots = s.Speed
		t.fix.Course = s.Course
		if s.Date.Valid {
			t.date = s.Date
		}
		t.setTime(s.Time)
		t.hasFix = true
		t.updates++
	case nmea.VTG:
		t.fix.SpeedKnots = s.GroundSpeedKnots
		t.fix.Course = s.TrueTrack
		t.updates++
	}
	return nil
}

// setTime combines the sentence time of day with the last RMC date. Without
// a date the previous fix time is kept.
func (t *Tracker) setTime(tod nmea.Time) {
	if !tod.Valid || !t.date.Valid {
		return
	}
	year := 2000 + t.date.YY
	if t.date.YY >= 80 {
		year = 1900 + t.date.YY
	}
	t.fix.FixTime = time.Date(year, time.Month(t.date.MM), t.date.DD,
		tod.Hour, tod.Minute, tod.Second, tod.Millisecond*int(time.Millisecond), time.UTC)
}

// Fix returns the latest fix and whether a valid position has been seen.
func (t *Tracker) Fix() (Fix, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fix, t.hasFix
}

// Updates returns how many sentences changed the fix.
func (t *Tracker) Updates() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updates
}

// ParseErrors returns how many sentences could not be parsed.
func (t *Tracker) ParseErrors() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.parseErrors
}

// Consume feeds every line of r into the tracker until r is exhausted.
// Unparseable sentences are counted and skipped; onError, when set, sees them.
func (t *Tracker) Consume(r io.Reader, onError func(line string, err error)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if err := t.Feed(line); err != nil && onError != nil {
			onError(line, err)
		}
	}
	return scanner.Err()
}
