package types

// LogLevel represents the severity of a client log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

type LogContext struct {
	Action       string           `json:"action,omitempty"`
	SubmissionID string           `json:"submissionId,omitempty"`
	Component    string           `json:"component,omitempty"`
	Duration     *int64           `json:"duration,omitempty"`
	TraceID      string           `json:"traceId,omitempty"`
	Error        *LogErrorContext `json:"error,omitempty"`
}

type LogErrorContext struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

type LogMetadata struct {
	UserAgent string `json:"userAgent"`
	URL       string `json:"url"`
	Dashboard string `json:"dashboard,omitempty"`
}

// LogEntry is a single entry emitted by a dashboard in the browser
type LogEntry struct {
	Timestamp string      `json:"timestamp"`
	Level     LogLevel    `json:"level"`
	Message   string      `json:"message"`
	Context   *LogContext `json:"context,omitempty"`
	Metadata  LogMetadata `json:"metadata"`
}

type LogBatchRequest struct {
	Logs      []LogEntry `json:"logs"`
	SessionID string     `json:"sessionId"`
}

type LogBatchResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Dropped   int  `json:"dropped"`
}
