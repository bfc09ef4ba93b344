package topaz

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError reports a non-success HTTP response from the API.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, body)
}

// IsInsufficientCredit reports whether err indicates the API key has run out
// of credits. Such keys are retired permanently rather than retried.
func IsInsufficientCredit(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.Code == http.StatusPaymentRequired &&
		strings.Contains(statusErr.Body, "Insufficient credits")
}
