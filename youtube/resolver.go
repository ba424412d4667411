package youtube

import (
	"context"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// channelIDRegex matches the canonical channel id shape: "UC" + 22 id chars.
var channelIDRegex = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)

const channelPathMarker = "/channel/"

// nameMarkers are URL path markers followed by a legacy custom name or a handle.
var nameMarkers = []string{"/c/", "/user/", "/@"}

// IsChannelID reports whether s has the canonical channel id shape.
func IsChannelID(s string) bool {
	return channelIDRegex.MatchString(s)
}

// Resolver converts channel URLs, handles, names and ids into a ChannelID.
type Resolver struct {
	client *Client
}

// NewResolver creates a Resolver that searches through client when needed.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the canonical id for input. Canonical ids and /channel/
// URLs carrying one resolve without any upstream call; everything else costs
// exactly one channel search.
func (r *Resolver) Resolve(ctx context.Context, input string) (ChannelID, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &ValidationError{Field: "channel", Reason: "required"}
	}

	if IsChannelID(input) {
		return ChannelID(input), nil
	}

	if id := extractChannelIDFromURL(input); id != "" {
		return ChannelID(id), nil
	}

	query := searchQuery(input)
	log.WithField("query", query).Debug("youtube: resolving channel via search")

	id, err := r.client.searchChannel(ctx, query)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &NotFoundError{What: "channel", Query: input}
	}
	return id, nil
}

// extractChannelIDFromURL extracts a canonical id from a /channel/ URL.
func extractChannelIDFromURL(url string) string {
	seg, ok := segmentAfter(url, channelPathMarker)
	if !ok || !IsChannelID(seg) {
		return ""
	}
	return seg
}

// searchQuery derives the channel search text for input: the custom name or
// handle of a /c/, /user/ or /@ URL, otherwise the input itself.
func searchQuery(input string) string {
	for _, marker := range nameMarkers {
		seg, ok := segmentAfter(input, marker)
		if !ok {
			continue
		}
		if seg = strings.TrimPrefix(seg, "@"); seg != "" {
			return seg
		}
	}
	return input
}

// segmentAfter returns the path segment following marker, cut at the next
// '/', '?' or '#'.
func segmentAfter(s, marker string) (string, bool) {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", false
	}
	rest := s[idx+len(marker):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}
