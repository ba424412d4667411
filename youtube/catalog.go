package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Catalog runs whole fetch sessions: resolve the channel input, read the
// channel metadata, then walk its videos.
type Catalog struct {
	resolver *Resolver
	info     *InfoAccessor
	fetcher  *Fetcher
}

// NewCatalog creates a Catalog whose components share client.
func NewCatalog(client *Client, pageDelay time.Duration) *Catalog {
	return &Catalog{
		resolver: NewResolver(client),
		info:     NewInfoAccessor(client),
		fetcher:  NewFetcher(client, pageDelay),
	}
}

// Resolve returns the canonical id for a channel URL, handle, name or id.
func (c *Catalog) Resolve(ctx context.Context, input string) (ChannelID, error) {
	return c.resolver.Resolve(ctx, input)
}

// Channel resolves input and returns the channel metadata.
func (c *Catalog) Channel(ctx context.Context, input string) (*ChannelInfo, error) {
	id, err := c.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	return c.info.GetInfo(ctx, id)
}

// Videos resolves input and returns the channel metadata together with its
// complete video listing. Invalid options fail before any upstream call.
func (c *Catalog) Videos(ctx context.Context, input string, opts Options) (*ChannelInfo, []Video, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, nil, err
	}
	info, err := c.Channel(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	videos, err := c.fetcher.FetchAll(ctx, info.ID, opts)
	if err != nil {
		return nil, nil, err
	}
	return info, videos, nil
}

// Stream runs a session that reports every step to sink. Resolution and
// metadata failures are delivered through sink.Fail like fetch failures.
// Video details are always included. Invalid options are reported through
// sink.Fail before any upstream call.
func (c *Catalog) Stream(ctx context.Context, input string, opts Options, sink Sink) error {
	opts.IncludeDetails = true
	opts, err := opts.Normalize()
	if err != nil {
		sink.Fail(err)
		return err
	}

	if err := sink.Progress(ProgressEvent{
		Stage:   StageResolving,
		Message: "Resolving channel...",
	}); err != nil {
		return c.abort(err, sink)
	}

	id, err := c.resolver.Resolve(ctx, input)
	if err != nil {
		return c.abort(err, sink)
	}

	info, err := c.info.GetInfo(ctx, id)
	if err != nil {
		return c.abort(err, sink)
	}
	log.WithFields(log.Fields{
		"channel": info.ID,
		"title":   info.Title,
	}).Info("youtube: channel resolved")

	if err := sink.Progress(ProgressEvent{
		Stage:       StageChannelInfo,
		Message:     fmt.Sprintf("Found channel: %s", info.Title),
		ChannelInfo: info,
	}); err != nil {
		return c.abort(err, sink)
	}

	if err := sink.Progress(ProgressEvent{
		Stage:   StageFetching,
		Message: "Fetching videos...",
	}); err != nil {
		return c.abort(err, sink)
	}

	return c.fetcher.FetchStream(ctx, info.ID, opts, sink)
}

// abort ends a session before the fetch loop started. A stop is passed
// through silently, anything else is reported once.
func (c *Catalog) abort(err error, sink Sink) error {
	if errors.Is(err, ErrStopped) {
		return ErrStopped
	}
	sink.Fail(err)
	return err
}
