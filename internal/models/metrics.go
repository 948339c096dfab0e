package models

import "time"

// Metric is a single collected value with its unit.
type Metric struct {
	Value any    `json:"value"`
	Unit  string `json:"unit"`
}

// ReadinessReport is served by the readiness endpoint.
type ReadinessReport struct {
	Status        string            `json:"status"`
	StartedAt     time.Time         `json:"startedAt"`
	Devices       int               `json:"devices"`
	Subscribers   int               `json:"subscribers"`
	StorageFaults uint64            `json:"storageFaults"`
	Metrics       map[string]Metric `json:"metrics"`
}
