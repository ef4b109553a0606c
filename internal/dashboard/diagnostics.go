package dashboard

import "time"

// Diagnostic codes
const (
	DiagUnknownFilterKey = "unknown_filter_key"
	DiagFormatterFailed  = "formatter_failed"
)

// maxDiagnostics bounds the diagnostics kept per store
const maxDiagnostics = 256

// Diagnostic records a non-fatal anomaly observed by a store or panel
type Diagnostic struct {
	Code    string    `json:"code"`
	Key     string    `json:"key,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
