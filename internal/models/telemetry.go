package models

import (
	"encoding/json"
	"time"
)

// TelemetryDocument is a device-submitted status document. Values are kept as
// raw JSON so the hub passes them through untouched.
type TelemetryDocument map[string]json.RawMessage

// TelemetryRecord is a stamped, encoded telemetry document. Body must not be
// modified after the record has been built; it is shared by the cache, the
// append log and every subscriber.
type TelemetryRecord struct {
	DeviceID   string
	ReceivedAt time.Time
	Body       json.RawMessage
}

// MarshalJSON renders the record as its stamped document.
func (r TelemetryRecord) MarshalJSON() ([]byte, error) {
	if len(r.Body) == 0 {
		return []byte("null"), nil
	}
	return r.Body, nil
}

// IngestResponse is the acknowledgement returned to producers.
type IngestResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
