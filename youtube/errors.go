package youtube

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrStopped signals a cooperative stop of a fetch session. It is returned
// when the consumer cancels the context or a sink asks to stop; neither a
// completion nor an error event is delivered in that case.
var ErrStopped = errors.New("youtube: fetch stopped by consumer")

// NotFoundError reports that resolution or an info lookup matched nothing.
// Use errors.As() to get the details:
//
//	var nf *youtube.NotFoundError
//	if errors.As(err, &nf) {
//		fmt.Printf("no %s for %q\n", nf.What, nf.Query)
//	}
type NotFoundError struct {
	// What is the kind of entity that was looked up ("channel").
	What string
	// Query is the input or id that matched nothing.
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("youtube: %s not found: %q", e.What, e.Query)
}

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	// Field names the offending input.
	Field string
	// Reason describes what is wrong with it.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("youtube: invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError wraps any transport, auth, quota or decoding failure from the
// Data API. The underlying message is kept for diagnostics.
type UpstreamError struct {
	// Op is the upstream call that failed ("search.list", "videos.list", ...).
	Op string
	// Err is the underlying error.
	Err error
}

func (e *UpstreamError) Error() string {
	return "youtube: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *UpstreamError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is, or wraps, an *UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// upstreamError classifies a failed call. A canceled parent context is a
// consumer stop, everything else (including per-call timeouts) is upstream.
func upstreamError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrStopped
	}
	return &UpstreamError{Op: op, Err: err}
}
