package models

import "github.com/benmeehan/rov-hub/pkg/location"

// GPSTelemetry is the document the GPS relay posts to the hub.
type GPSTelemetry struct {
	DeviceID string       `json:"deviceId"`
	Source   string       `json:"source"`
	GPS      location.Fix `json:"gps"`
}
