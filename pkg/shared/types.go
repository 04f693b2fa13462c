package shared

import (
	"time"
)

// MessageResponse is the body of every non-success answer from /register.
type MessageResponse struct {
	Msg string `json:"msg"`
}

type RegisterResponse struct {
	NewMetadataRecord *MetadataRecordRef `json:"new_metadata_record,omitempty"`
}

type MetadataRecordRef struct {
	ID     string `json:"id"`
	WebURL string `json:"web_url"`
	APIURL string `json:"api_url"`
}

// Event types
type RegistrationEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	RecordID  string    `json:"record_id"`
	Title     string    `json:"title"`
	WebURL    string    `json:"web_url,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Health check
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// Constants
const (
	ServiceName = "argg-api"

	// Registration outcomes
	StatusCompleted             = "completed"
	StatusCompletedWithWarnings = "completed_with_warnings"
	StatusSkipped               = "skipped"
	StatusFailed                = "failed"

	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
	HealthDisabled  = "disabled"
)
