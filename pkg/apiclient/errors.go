package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError reports a non-2xx response from a scan-service API. Body holds
// the raw response text for diagnostics; callers branch on StatusCode.
type APIError struct {
	URL        string
	Method     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// On404 runs each alternative in turn, advancing to the next only when
// the previous one failed with a 404. Any other error aborts the chain
// immediately. It returns nil when an alternative succeeds, and also when
// every alternative 404s - exhausting the chain means nobody could act,
// which the callers treat as "nothing to do".
func On404(alts ...func() error) error {
	for _, alt := range alts {
		err := alt()
		if err == nil {
			return nil
		}
		if !IsNotFound(err) {
			return err
		}
	}
	return nil
}
