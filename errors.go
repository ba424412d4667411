package ytcatalog

import (
	"github.com/pkg/errors"

	"ytcatalog/youtube"
)

// Type aliases for convenient error handling.
//
//	var nf *ytcatalog.NotFoundError
//	if errors.As(err, &nf) {
//		fmt.Printf("no %s for %q\n", nf.What, nf.Query)
//	}
type (
	// NotFoundError reports that resolution or an info lookup matched nothing.
	NotFoundError = youtube.NotFoundError
	// ValidationError reports missing or malformed caller input.
	ValidationError = youtube.ValidationError
	// UpstreamError wraps a failure of the YouTube Data API.
	UpstreamError = youtube.UpstreamError
)

// ErrStopped is returned when a fetch was stopped by its consumer.
var ErrStopped = youtube.ErrStopped

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is or wraps an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
