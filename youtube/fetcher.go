package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Fetcher walks a channel's video listing page by page.
type Fetcher struct {
	client    *Client
	details   *DetailFetcher
	pageDelay time.Duration
}

// NewFetcher creates a Fetcher that pauses pageDelay after every page that
// has a successor. A non-positive delay disables the pause.
func NewFetcher(client *Client, pageDelay time.Duration) *Fetcher {
	return &Fetcher{
		client:    client,
		details:   NewDetailFetcher(client),
		pageDelay: pageDelay,
	}
}

// FetchAll returns every video of channel id in upstream order. It either
// returns the whole listing or an error, never a partial result.
func (f *Fetcher) FetchAll(ctx context.Context, id ChannelID, opts Options) ([]Video, error) {
	c := NewCollector()
	if err := f.FetchStream(ctx, id, opts, c); err != nil {
		return nil, err
	}
	return c.Videos(), nil
}

// FetchStream walks the listing of channel id and delivers every page to
// sink as soon as it is merged. The sink receives exactly one Complete or
// Fail unless the session is stopped, in which case ErrStopped is returned
// and no terminal event is delivered.
func (f *Fetcher) FetchStream(ctx context.Context, id ChannelID, opts Options, sink Sink) error {
	opts, err := opts.Normalize()
	if err != nil {
		sink.Fail(err)
		return err
	}

	logger := log.WithFields(log.Fields{
		"channel": id,
		"order":   opts.Order,
		"details": opts.IncludeDetails,
	})

	total, err := f.walk(ctx, id, opts, sink, logger)
	if errors.Is(err, ErrStopped) {
		logger.WithField("fetched", total).Info("youtube: fetch stopped")
		return ErrStopped
	}
	if err != nil {
		logger.WithError(err).Warn("youtube: fetch failed")
		sink.Fail(err)
		return err
	}

	logger.WithField("total", total).Info("youtube: fetch complete")
	return sink.Complete(total)
}

func (f *Fetcher) walk(ctx context.Context, id ChannelID, opts Options, sink Sink, logger *log.Entry) (int, error) {
	total := 0
	cursor := ""

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, upstreamError(ctx, "fetch", err)
		}

		listing, err := f.client.searchVideos(ctx, id, opts, cursor)
		if err != nil {
			return total, err
		}

		var details map[string]VideoDetail
		if opts.IncludeDetails && len(listing.summaries) > 0 {
			if err := ctx.Err(); err != nil {
				return total, upstreamError(ctx, "fetch", err)
			}
			details, err = f.details.GetDetails(ctx, summaryIDs(listing.summaries))
			if err != nil {
				return total, err
			}
		}

		videos := MergeDetails(listing.summaries, details)
		total += len(videos)
		if err := sink.Page(videos); err != nil {
			return total, err
		}

		hasMore := listing.next != ""
		logger.WithFields(log.Fields{
			"page":    page,
			"items":   len(videos),
			"total":   total,
			"hasMore": hasMore,
		}).Debug("youtube: page fetched")

		err = sink.Progress(ProgressEvent{
			Stage:        StagePage,
			Message:      fmt.Sprintf("Fetched page %d (%d videos so far)", page, total),
			Page:         page,
			TotalFetched: total,
			HasMore:      hasMore,
		})
		if err != nil {
			return total, err
		}

		if !hasMore {
			return total, nil
		}
		if err := f.pause(ctx); err != nil {
			return total, upstreamError(ctx, "page delay", err)
		}
		cursor = listing.next
	}
}

// pause blocks for the full page delay, counted from the moment the previous
// page was delivered. The pacer starts drained, so Wait always spans the
// whole delay.
func (f *Fetcher) pause(ctx context.Context) error {
	if f.pageDelay <= 0 {
		return nil
	}
	pacer := rate.NewLimiter(rate.Every(f.pageDelay), 1)
	pacer.Allow()
	return pacer.Wait(ctx)
}
