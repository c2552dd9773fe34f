package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const maxBodyInMessage = 256

// Error is a non-2xx answer from the remote API.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *Error) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > maxBodyInMessage {
		body = body[:maxBodyInMessage] + "..."
	}
	if body == "" {
		return fmt.Sprintf("remote %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("remote %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, body)
}

// AsError extracts a remote API error from err.
func AsError(err error) (*Error, bool) {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	remoteErr, ok := AsError(err)
	return ok && remoteErr.StatusCode == http.StatusNotFound
}

// ContentionPredicate reports whether an error is the remote store refusing
// a concurrent write. Markers are matched case-insensitively against the
// error message and the full response body.
func ContentionPredicate(markers ...string) func(error) bool {
	normalized := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			normalized = append(normalized, m)
		}
	}

	return func(err error) bool {
		if err == nil || len(normalized) == 0 {
			return false
		}
		haystacks := []string{strings.ToLower(err.Error())}
		if remoteErr, ok := AsError(err); ok {
			haystacks = append(haystacks, strings.ToLower(string(remoteErr.Body)))
		}
		for _, h := range haystacks {
			for _, m := range normalized {
				if strings.Contains(h, m) {
					return true
				}
			}
		}
		return false
	}
}
