package youtube

import (
	"context"
)

// InfoAccessor reads channel metadata.
type InfoAccessor struct {
	client *Client
}

// NewInfoAccessor creates an InfoAccessor backed by client.
func NewInfoAccessor(client *Client) *InfoAccessor {
	return &InfoAccessor{client: client}
}

// GetInfo returns the metadata of channel id with a single upstream call.
func (a *InfoAccessor) GetInfo(ctx context.Context, id ChannelID) (*ChannelInfo, error) {
	ch, err := a.client.channel(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, &NotFoundError{What: "channel", Query: string(id)}
	}

	info := &ChannelInfo{ID: ChannelID(ch.Id)}
	if info.ID == "" {
		info.ID = id
	}
	if ch.Snippet != nil {
		info.Title = ch.Snippet.Title
		info.Description = ch.Snippet.Description
		info.ThumbnailURL = bestThumbnail(ch.Snippet.Thumbnails)
	}
	if ch.Statistics != nil {
		info.SubscriberCount = ch.Statistics.SubscriberCount
		info.VideoCount = ch.Statistics.VideoCount
		info.ViewCount = ch.Statistics.ViewCount
	}
	return info, nil
}
