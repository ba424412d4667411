package ytcatalog

import (
	"context"

	"ytcatalog/youtube"
)

// FetchChannel resolves input and returns the channel metadata together with
// every video of the channel, details included, in default order.
//
// Extra client options (endpoint, transport, timeout) are passed to
// youtube.NewClient.
func FetchChannel(ctx context.Context, apiKey, input string, opts ...youtube.ClientOption) (*youtube.ChannelInfo, []youtube.Video, error) {
	client, err := youtube.NewClient(ctx, apiKey, opts...)
	if err != nil {
		return nil, nil, err
	}
	catalog := youtube.NewCatalog(client, youtube.DefaultPageDelay)
	return catalog.Videos(ctx, input, youtube.DefaultOptions())
}
