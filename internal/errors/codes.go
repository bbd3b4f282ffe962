package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrParseFlags      ErrorCode = "parse_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidPort     ErrorCode = "invalid_port"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Lifecycle errors
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Ingestion errors
	ErrBindTransport    ErrorCode = "bind_transport_failed"
	ErrReceive          ErrorCode = "receive_failed"
	ErrMalformedReport  ErrorCode = "malformed_report"
	ErrStoreStopped     ErrorCode = "store_stopped"
	ErrTaskAlreadyStart ErrorCode = "task_already_started"

	// Operation errors
	ErrTimeout ErrorCode = "operation_timeout"

	// Serving errors
	ErrServe   ErrorCode = "serve_failed"
	ErrPublish ErrorCode = "publish_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrUnavailable:      "Service unavailable",
	ErrAlreadyRunning:   "Another instance is already running",
	ErrInvalidConfig:    "Invalid configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrParseFlags:       "Failed to parse flags",
	ErrReadConfig:       "Failed to read configuration",
	ErrInvalidPort:      "Invalid port",
	ErrInvalidInterval:  "Invalid interval value",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrShutdownFailed:   "Shutdown failed",
	ErrBindTransport:    "Failed to bind transport",
	ErrReceive:          "Failed to receive datagram",
	ErrMalformedReport:  "Malformed report",
	ErrStoreStopped:     "Observation store is stopped",
	ErrTaskAlreadyStart: "Task already started",
	ErrTimeout:          "Operation timed out",
	ErrServe:            "HTTP server failed",
	ErrPublish:          "Failed to publish snapshot",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
