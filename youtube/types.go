// Package youtube fetches a channel's video catalog from the YouTube Data API v3.
//
// The package resolves heterogeneous channel inputs to canonical ids, reads
// channel metadata, and walks the channel's video listing page by page,
// enriching every page with one detail batch and delivering the merged
// videos either as a slice or incrementally through a Sink.
package youtube

import (
	"time"
)

// ChannelID is the canonical upstream channel id (e.g. "UCBJycsmduvYEL83R_U4JriQ").
type ChannelID string

// String returns the id as a plain string.
func (id ChannelID) String() string { return string(id) }

// ChannelInfo contains channel metadata. Counts may exceed 32 bits and are
// encoded as decimal strings, as the upstream API does.
type ChannelInfo struct {
	// ID is the canonical channel id.
	ID ChannelID `json:"id"`

	// Title is the channel display name.
	Title string `json:"title"`

	// Description is the channel description.
	Description string `json:"description"`

	// ThumbnailURL is the best available channel avatar.
	ThumbnailURL string `json:"thumbnailUrl"`

	SubscriberCount uint64 `json:"subscriberCount,string"`
	VideoCount      uint64 `json:"videoCount,string"`
	ViewCount       uint64 `json:"viewCount,string"`
}

// URL returns the full YouTube URL for the channel.
func (c ChannelInfo) URL() string {
	return "https://www.youtube.com/channel/" + string(c.ID)
}

// VideoSummary is one item of a channel listing page, before enrichment.
type VideoSummary struct {
	VideoID      string
	Title        string
	Description  string
	PublishedAt  time.Time
	ThumbnailURL string
}

// VideoDetail holds the statistics and content details of one video.
type VideoDetail struct {
	VideoID string

	// Duration is the ISO 8601 duration reported upstream (e.g. "PT4M13S").
	Duration string

	ViewCount    uint64
	LikeCount    uint64
	CommentCount uint64

	// Tags is never nil.
	Tags []string
}

// Video is the merged record delivered to consumers.
type Video struct {
	// VideoID is the YouTube video id (e.g. "dQw4w9WgXcQ"). Never empty.
	VideoID string `json:"videoId"`

	Title       string    `json:"title"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"publishedAt"`

	// ThumbnailURL is empty when upstream returned no thumbnails.
	ThumbnailURL string `json:"thumbnailUrl"`

	// URL is the watch page of the video.
	URL string `json:"url"`

	// Detail fields stay zero when the detail batch did not cover the video.
	Duration     string   `json:"duration"`
	ViewCount    uint64   `json:"viewCount,string"`
	LikeCount    uint64   `json:"likeCount,string"`
	CommentCount uint64   `json:"commentCount,string"`
	Tags         []string `json:"tags"`
}

// VideoURL returns the full YouTube URL for a video id.
func VideoURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Stage tags a ProgressEvent.
type Stage string

const (
	// StageResolving is emitted before the channel input is resolved.
	StageResolving Stage = "resolving"
	// StageChannelInfo carries the channel metadata once it is known.
	StageChannelInfo Stage = "channel_info"
	// StageFetching is emitted before the first listing page is requested.
	StageFetching Stage = "fetching"
	// StagePage is emitted after every delivered page.
	StagePage Stage = "page"
)

// ProgressEvent is a status snapshot of a fetch session.
type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`

	// Page is the 1-based number of the page just delivered.
	Page int `json:"page,omitempty"`

	// TotalFetched is the running count of delivered videos.
	TotalFetched int `json:"totalFetched"`

	// HasMore reports whether another page follows.
	HasMore bool `json:"hasMore"`

	// ChannelInfo is set on StageChannelInfo events.
	ChannelInfo *ChannelInfo `json:"channelInfo,omitempty"`
}
