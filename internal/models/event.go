package models

import "time"

// Event is a notification fanned out by the event bus.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// TelemetryEventData is the payload of a telemetry event.
type TelemetryEventData struct {
	DeviceID  string          `json:"deviceId"`
	Telemetry TelemetryRecord `json:"telemetry"`
}
