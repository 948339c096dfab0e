package constants

// Event kinds published on the event bus.
const (
	EventTelemetry = "telemetry"
)

// Device identifier fields, in priority order.
var DeviceIDFields = []string{"deviceId", "device_id"}

// Fields added or read by the hub.
const (
	FieldServerReceivedAt = "serverReceivedAt"
	FieldManifestVersion  = "version"
)

// Firmware manifest layout.
const (
	DefaultChannel   = "stable"
	ManifestFileName = "manifest.json"
)

// HTTP headers.
const (
	HeaderAPIKey          = "X-API-Key"
	HeaderRequestID       = "X-Request-ID"
	HeaderUpdateAvailable = "X-Update-Available"
)
