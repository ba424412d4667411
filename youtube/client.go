package youtube

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// DefaultRequestTimeout bounds every individual upstream call.
const DefaultRequestTimeout = 15 * time.Second

// DefaultUserAgent is appended to the API client's own User-Agent.
const DefaultUserAgent = "ytcatalog/0.1"

// Client issues the four Data API calls the catalog needs. It holds the API
// key and nothing else, so one Client is safe to share between sessions.
type Client struct {
	service *yt.Service
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
	endpoint  string
	timeout   time.Duration
	userAgent string
}

// WithTransport sets the round tripper used for upstream calls.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// WithEndpoint overrides the Data API base URL (useful for testing).
func WithEndpoint(url string) ClientOption {
	return func(o *clientOptions) {
		o.endpoint = url
	}
}

// WithRequestTimeout sets the per-call timeout. Non-positive values are ignored.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUserAgent sets the product token sent in the User-Agent of every call.
func WithUserAgent(ua string) ClientOption {
	return func(o *clientOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// NewClient creates a Data API client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ValidationError{Field: "api key", Reason: "required"}
	}

	o := clientOptions{
		transport: http.DefaultTransport,
		timeout:   DefaultRequestTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := &http.Client{
		Transport: &transport.APIKey{Key: apiKey, Transport: o.transport},
	}
	svcOpts := []option.ClientOption{option.WithHTTPClient(hc)}
	if o.endpoint != "" {
		ep := o.endpoint
		if !strings.HasSuffix(ep, "/") {
			ep += "/"
		}
		svcOpts = append(svcOpts, option.WithEndpoint(ep))
		log.Infof("youtube data api endpoint %v", ep)
	}

	service, err := yt.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "create youtube service")
	}
	service.UserAgent = o.userAgent

	return &Client{
		service: service,
		timeout: o.timeout,
	}, nil
}

// searchChannel returns the id of the top channel matching q, or "" when
// nothing matched.
func (c *Client) searchChannel(ctx context.Context, q string) (ChannelID, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(q).
		Type("channel").
		MaxResults(1).
		Context(cctx).
		Do()
	if err != nil {
		return "", upstreamError(ctx, "search.list", err)
	}

	for _, item := range resp.Items {
		if item.Id != nil && item.Id.ChannelId != "" {
			return ChannelID(item.Id.ChannelId), nil
		}
		if item.Snippet != nil && item.Snippet.ChannelId != "" {
			return ChannelID(item.Snippet.ChannelId), nil
		}
	}
	return "", nil
}

// channel returns channel metadata, or nil when the id is unknown upstream.
func (c *Client) channel(ctx context.Context, id ChannelID) (*yt.Channel, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.service.Channels.List([]string{"snippet", "statistics"}).
		Id(string(id)).
		Context(cctx).
		Do()
	if err != nil {
		return nil, upstreamError(ctx, "channels.list", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items[0], nil
}

// listingPage is one page of a channel video listing.
type listingPage struct {
	summaries []VideoSummary
	next      string
}

// searchVideos fetches one listing page of the channel's videos.
func (c *Client) searchVideos(ctx context.Context, id ChannelID, opts Options, cursor string) (*listingPage, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := c.service.Search.List([]string{"snippet"}).
		ChannelId(string(id)).
		Type("video").
		Order(string(opts.Order)).
		MaxResults(int64(opts.MaxResultsPerPage))
	if cursor != "" {
		call = call.PageToken(cursor)
	}
	if opts.PublishedAfter != "" {
		call = call.PublishedAfter(opts.PublishedAfter)
	}
	if opts.PublishedBefore != "" {
		call = call.PublishedBefore(opts.PublishedBefore)
	}

	resp, err := call.Context(cctx).Do()
	if err != nil {
		return nil, upstreamError(ctx, "search.list", err)
	}

	page := &listingPage{
		summaries: make([]VideoSummary, 0, len(resp.Items)),
		next:      resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			log.WithField("channel", id).Warn("youtube: skipping listing item without video id")
			continue
		}
		s, err := summaryFromSearch(item)
		if err != nil {
			return nil, &UpstreamError{Op: "search.list", Err: err}
		}
		page.summaries = append(page.summaries, s)
	}
	return page, nil
}

// videos fetches statistics and content details for up to MaxPageSize ids.
func (c *Client) videos(ctx context.Context, ids []string) ([]*yt.Video, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.service.Videos.List([]string{"contentDetails", "statistics", "snippet"}).
		Id(ids...).
		Context(cctx).
		Do()
	if err != nil {
		return nil, upstreamError(ctx, "videos.list", err)
	}
	return resp.Items, nil
}

// summaryFromSearch converts a listing item that carries a video id and
// snippet. A malformed publish date is an error.
func summaryFromSearch(item *yt.SearchResult) (VideoSummary, error) {
	published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	if err != nil {
		return VideoSummary{}, errors.Wrapf(err, "video %s: malformed publishedAt", item.Id.VideoId)
	}
	return VideoSummary{
		VideoID:      item.Id.VideoId,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		PublishedAt:  published,
		ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
	}, nil
}

// bestThumbnail picks high, then medium, then default.
func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
