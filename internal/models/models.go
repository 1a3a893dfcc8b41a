package models

// Status values used as the envelope discriminator.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// FormattedResponse is the success envelope for a completed query.
type FormattedResponse struct {
	Status    string `json:"status"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// StatusInfo describes an endpoint for GET status checks.
type StatusInfo struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Endpoint  string   `json:"endpoint"`
	Version   string   `json:"version"`
	GoVersion string   `json:"go_version,omitempty"`
	Methods   []string `json:"methods"`
}
