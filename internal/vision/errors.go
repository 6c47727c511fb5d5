package vision

import (
	"errors"
	"fmt"
)

// StatusError preserves the upstream HTTP status so the scan orchestrator can
// classify transient vs. permanent failures.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("extraction service status %d: %s", e.StatusCode, truncate(e.Body, 256))
}

// StatusCodeOf returns the embedded HTTP status, or 0 if err carries none.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
