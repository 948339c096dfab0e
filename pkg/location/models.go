package location

import "time"

// Fix is the latest position assembled from NMEA sentences.
type Fix struct {
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	FixQuality string    `json:"fixQuality,omitempty"`
	Satellites int64     `json:"satellites"`
	HDOP       float64   `json:"hdop"`
	Altitude   float64   `json:"altitude"`
	SpeedKnots float64   `json:"speedKnots"`
	Course     float64   `json:"course"`
	FixTime    time.Time `json:"fixTime,omitempty"`
}
