package youtube

import (
	"context"

	yt "google.golang.org/api/youtube/v3"
)

// DetailFetcher retrieves statistics and content details for a batch of videos.
type DetailFetcher struct {
	client *Client
}

// NewDetailFetcher creates a DetailFetcher backed by client.
func NewDetailFetcher(client *Client) *DetailFetcher {
	return &DetailFetcher{client: client}
}

// GetDetails returns the details of ids keyed by video id, using one upstream
// call. Ids upstream does not know are simply absent from the result. An
// empty batch makes no call.
func (f *DetailFetcher) GetDetails(ctx context.Context, ids []string) (map[string]VideoDetail, error) {
	details := make(map[string]VideoDetail, len(ids))
	if len(ids) == 0 {
		return details, nil
	}
	if len(ids) > MaxPageSize {
		return nil, &ValidationError{Field: "ids", Reason: "detail batch larger than page size"}
	}

	items, err := f.client.videos(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil || item.Id == "" {
			continue
		}
		details[item.Id] = detailFromVideo(item)
	}
	return details, nil
}

func detailFromVideo(v *yt.Video) VideoDetail {
	d := VideoDetail{
		VideoID: v.Id,
		Tags:    []string{},
	}
	if v.ContentDetails != nil {
		d.Duration = v.ContentDetails.Duration
	}
	if v.Statistics != nil {
		d.ViewCount = v.Statistics.ViewCount
		d.LikeCount = v.Statistics.LikeCount
		d.CommentCount = v.Statistics.CommentCount
	}
	if v.Snippet != nil && v.Snippet.Tags != nil {
		d.Tags = v.Snippet.Tags
	}
	return d
}

// MergeDetails joins summaries with details by video id, keeping the order of
// summaries. A summary without a matching detail is still returned, with
// zero detail fields and empty tags.
func MergeDetails(summaries []VideoSummary, details map[string]VideoDetail) []Video {
	videos := make([]Video, 0, len(summaries))
	for _, s := range summaries {
		v := Video{
			VideoID:      s.VideoID,
			Title:        s.Title,
			Description:  s.Description,
			PublishedAt:  s.PublishedAt,
			ThumbnailURL: s.ThumbnailURL,
			URL:          VideoURL(s.VideoID),
			Tags:         []string{},
		}
		if d, ok := details[s.VideoID]; ok {
			v.Duration = d.Duration
			v.ViewCount = d.ViewCount
			v.LikeCount = d.LikeCount
			v.CommentCount = d.CommentCount
			if d.Tags != nil {
				v.Tags = d.Tags
			}
		}
		videos = append(videos, v)
	}
	return videos
}

func summaryIDs(summaries []VideoSummary) []string {
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.VideoID)
	}
	return ids
}
