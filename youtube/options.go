package youtube

import (
	"strings"
	"time"
)

// MaxPageSize is the upstream hard cap on items per listing call.
const MaxPageSize = 50

// DefaultPageDelay is the courtesy pause between two listing pages.
const DefaultPageDelay = 100 * time.Millisecond

// Order specifies the upstream sort order of the listing.
type Order string

const (
	// OrderDate sorts by publication date, newest first.
	OrderDate       Order = "date"
	OrderRating     Order = "rating"
	OrderRelevance  Order = "relevance"
	OrderTitle      Order = "title"
	OrderVideoCount Order = "videoCount"
	OrderViewCount  Order = "viewCount"
)

var orders = []Order{OrderDate, OrderRating, OrderRelevance, OrderTitle, OrderVideoCount, OrderViewCount}

// ParseOrder returns the Order named by s. Matching is case-insensitive and
// the empty string yields OrderDate.
func ParseOrder(s string) (Order, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OrderDate, nil
	}
	for _, o := range orders {
		if strings.EqualFold(string(o), s) {
			return o, nil
		}
	}
	return "", &ValidationError{Field: "order", Reason: "unknown order " + s}
}

// Options configures a listing walk.
type Options struct {
	// MaxResultsPerPage is clamped to [1, MaxPageSize]. Zero means MaxPageSize.
	MaxResultsPerPage int

	// Order is the upstream sort order. Empty means OrderDate.
	Order Order

	// PublishedAfter and PublishedBefore are optional RFC 3339 bounds passed
	// through to the listing call.
	PublishedAfter  string
	PublishedBefore string

	// IncludeDetails enriches every page with one detail batch.
	IncludeDetails bool
}

// DefaultOptions returns options with the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxResultsPerPage: MaxPageSize,
		Order:             OrderDate,
		IncludeDetails:    true,
	}
}

// Normalize validates o and returns a copy with defaults and clamping applied.
func (o Options) Normalize() (Options, error) {
	switch {
	case o.MaxResultsPerPage <= 0:
		o.MaxResultsPerPage = MaxPageSize
	case o.MaxResultsPerPage > MaxPageSize:
		o.MaxResultsPerPage = MaxPageSize
	}

	order, err := ParseOrder(string(o.Order))
	if err != nil {
		return o, err
	}
	o.Order = order

	if err := checkTimestamp("publishedAfter", o.PublishedAfter); err != nil {
		return o, err
	}
	if err := checkTimestamp("publishedBefore", o.PublishedBefore); err != nil {
		return o, err
	}
	return o, nil
}

func checkTimestamp(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, v); err != nil {
		return &ValidationError{Field: field, Reason: "expected RFC 3339 timestamp, got " + v}
	}
	return nil
}
