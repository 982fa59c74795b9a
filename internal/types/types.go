// Package types provides common type definitions shared by the monster tracker packages.
package types

// ReportFormat selects how a report is written by the CLI
type ReportFormat string

const (
	// FormatText renders reports as aligned console text
	FormatText ReportFormat = "text"
	// FormatJSON renders reports as indented JSON
	FormatJSON ReportFormat = "json"
)

// ParseReportFormat returns the format for s, or false when unknown
func ParseReportFormat(s string) (ReportFormat, bool) {
	switch s {
	case "", "text":
		return FormatText, true
	case "json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
