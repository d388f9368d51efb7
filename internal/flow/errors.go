package flow

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConfigurationError reports that the webhook endpoint is not configured.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured. Add it to your .env file.", e.Setting)
}

// TimeoutError reports that no response arrived before the deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Request timed out after %s. Please try again.", humanSeconds(e.Timeout))
}

// RequestError reports a non-success response or a response body that
// could not be parsed.
type RequestError struct {
	Message       string
	StatusCode    int
	CorrelationID string

	// ResponseBody is the parsed JSON body, nil when the response was not JSON.
	ResponseBody json.RawMessage
}

func (e *RequestError) Error() string {
	return e.Message
}

func humanSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
