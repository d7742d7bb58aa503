package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindUnreachable Kind = "unreachable"
	KindStatus      Kind = "non-2xx-status"
	KindTimeout     Kind = "timeout"
	KindMalformed   Kind = "malformed-response"
)

// FetchError is the typed failure of a single fetch. It degrades the
// source to zero results at the orchestrator boundary; it is never fatal
// to a run.
type FetchError struct {
	Source     string
	URL        string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): %s: status %d", e.Source, e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s (%s): %s: %v", e.Source, e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// classifyKind maps a transport-level error to a failure kind.
func classifyKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindUnreachable
}
