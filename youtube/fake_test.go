package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	yt "google.golang.org/api/youtube/v3"
)

const (
	testAPIKey    = "test-key"
	testChannelID = "UCBJycsmduvYEL83R_U4JriQ"
)

// fakeAPI emulates the four Data API endpoints the client uses.
type fakeAPI struct {
	t *testing.T

	mu sync.Mutex
	// channels maps a channel id to its metadata.
	channels map[string]*yt.Channel
	// search maps a channel search query to a channel id.
	search map[string]string
	// uploads maps a channel id to its videos in listing order.
	uploads map[string][]string
	// noDetails lists video ids that videos.list does not know.
	noDetails map[string]bool
	// tags maps a video id to its tags.
	tags map[string][]string

	failListingPage   int // 1-based listing page that fails, 0 for none
	failDetails       bool
	failChannelSearch bool
	status            int // status used for injected failures
	// badPublishedAt lists video ids whose listing item has an unparsable date.
	badPublishedAt map[string]bool
	// latency delays every response.
	latency time.Duration

	calls         map[string]int
	detailBatches [][]string
	listingQuery  []map[string]string
	listingAt     []time.Time
	keys          []string
	agents        []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:         t,
		channels:  map[string]*yt.Channel{},
		search:    map[string]string{},
		uploads:   map[string][]string{},
		noDetails: map[string]bool{},
		tags:      map[string][]string{},
		status:    http.StatusForbidden,
		calls:     map[string]int{},

		badPublishedAt: map[string]bool{},
	}
}

// addChannel registers a channel with n uploads named vid-000, vid-001, ...
func (f *fakeAPI) addChannel(id, title string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[id] = &yt.Channel{
		Id: id,
		Snippet: &yt.ChannelSnippet{
			Title:       title,
			Description: title + " description",
			Thumbnails: &yt.ThumbnailDetails{
				Default: &yt.Thumbnail{Url: "https://img.example/" + id + "/default.jpg"},
				High:    &yt.Thumbnail{Url: "https://img.example/" + id + "/high.jpg"},
			},
		},
		Statistics: &yt.ChannelStatistics{
			SubscriberCount: 1200,
			VideoCount:      uint64(n),
			ViewCount:       987654321,
		},
	}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("vid-%03d", i))
	}
	f.uploads[id] = ids
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// listingTimes returns the arrival time of every video listing request.
func (f *fakeAPI) listingTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.listingAt...)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	arrived := time.Now()
	f.mu.Lock()
	latency := f.latency
	f.mu.Unlock()
	if latency > 0 {
		time.Sleep(latency)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	f.keys = append(f.keys, q.Get("key"))
	f.agents = append(f.agents, r.Header.Get("User-Agent"))

	switch r.URL.Path {
	case "/youtube/v3/search":
		if q.Get("type") == "channel" {
			f.calls["search.channel"]++
			if f.failChannelSearch {
				f.fail(w, "forbidden")
				return
			}
			f.searchChannels(w, q.Get("q"))
			return
		}
		f.calls["search.video"]++
		f.listingAt = append(f.listingAt, arrived)
		f.searchVideos(w, r)
	case "/youtube/v3/channels":
		f.calls["channels"]++
		f.listChannels(w, q.Get("id"))
	case "/youtube/v3/videos":
		f.calls["videos"]++
		f.listVideos(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) searchChannels(w http.ResponseWriter, query string) {
	resp := &yt.SearchListResponse{Items: []*yt.SearchResult{}}
	if id, ok := f.search[query]; ok {
		resp.Items = append(resp.Items, &yt.SearchResult{
			Id:      &yt.ResourceId{Kind: "youtube#channel", ChannelId: id},
			Snippet: &yt.SearchResultSnippet{ChannelId: id, Title: query},
		})
	}
	f.write(w, resp)
}

func (f *fakeAPI) searchVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.listingQuery = append(f.listingQuery, map[string]string{
		"channelId":       q.Get("channelId"),
		"order":           q.Get("order"),
		"maxResults":      q.Get("maxResults"),
		"pageToken":       q.Get("pageToken"),
		"publishedAfter":  q.Get("publishedAfter"),
		"publishedBefore": q.Get("publishedBefore"),
	})

	if f.failListingPage > 0 && f.calls["search.video"] == f.failListingPage {
		f.fail(w, "quotaExceeded")
		return
	}

	ids := f.uploads[q.Get("channelId")]
	size, _ := strconv.Atoi(q.Get("maxResults"))
	if size <= 0 {
		size = 5
	}
	start := 0
	if tok := q.Get("pageToken"); tok != "" {
		start, _ = strconv.Atoi(strings.TrimPrefix(tok, "page-"))
	}
	end := start + size
	if end > len(ids) {
		end = len(ids)
	}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	resp := &yt.SearchListResponse{Items: []*yt.SearchResult{}}
	for i := start; i < end; i++ {
		published := base.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339)
		if f.badPublishedAt[ids[i]] {
			published = "yesterday"
		}
		resp.Items = append(resp.Items, &yt.SearchResult{
			Id: &yt.ResourceId{Kind: "youtube#video", VideoId: ids[i]},
			Snippet: &yt.SearchResultSnippet{
				Title:       "Video " + ids[i],
				Description: "About " + ids[i],
				PublishedAt: published,
				Thumbnails: &yt.ThumbnailDetails{
					Medium: &yt.Thumbnail{Url: "https://img.example/" + ids[i] + "/medium.jpg"},
				},
			},
		})
	}
	if end < len(ids) {
		resp.NextPageToken = fmt.Sprintf("page-%d", end)
	}
	f.write(w, resp)
}

func (f *fakeAPI) listChannels(w http.ResponseWriter, id string) {
	resp := &yt.ChannelListResponse{Items: []*yt.Channel{}}
	if ch, ok := f.channels[id]; ok {
		resp.Items = append(resp.Items, ch)
	}
	f.write(w, resp)
}

func (f *fakeAPI) listVideos(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, v := range r.URL.Query()["id"] {
		ids = append(ids, strings.Split(v, ",")...)
	}
	f.detailBatches = append(f.detailBatches, ids)

	if f.failDetails {
		f.fail(w, "backendError")
		return
	}

	resp := &yt.VideoListResponse{Items: []*yt.Video{}}
	for i, id := range ids {
		if f.noDetails[id] {
			continue
		}
		resp.Items = append(resp.Items, &yt.Video{
			Id:             id,
			ContentDetails: &yt.VideoContentDetails{Duration: fmt.Sprintf("PT%dM", i+1)},
			Statistics: &yt.VideoStatistics{
				ViewCount:    uint64(100 * (i + 1)),
				LikeCount:    uint64(10 * (i + 1)),
				CommentCount: uint64(i + 1),
			},
			Snippet: &yt.VideoSnippet{Tags: f.tags[id]},
		})
	}
	f.write(w, resp)
}

func (f *fakeAPI) fail(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":"injected %s","errors":[{"reason":%q}]}}`, f.status, reason, reason)
}

func (f *fakeAPI) write(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("encode fake response: %v", err)
	}
}

// newTestClient starts the fake and returns a Client talking to it. opts are
// applied after the test defaults.
func newTestClient(t *testing.T, f *fakeAPI, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	opts = append([]ClientOption{
		WithEndpoint(srv.URL),
		WithRequestTimeout(5 * time.Second),
	}, opts...)
	c, err := NewClient(context.Background(), testAPIKey, opts...)
	require.NoError(t, err)
	return c
}

// recordingSink records every sink call as a readable line.
type recordingSink struct {
	events []string
	videos []Video
	err    error

	stopAfterPages int
	pages          int
}

func (s *recordingSink) Progress(ev ProgressEvent) error {
	s.events = append(s.events, "progress:"+string(ev.Stage))
	return nil
}

func (s *recordingSink) Page(videos []Video) error {
	s.pages++
	s.events = append(s.events, fmt.Sprintf("page:%d", len(videos)))
	s.videos = append(s.videos, videos...)
	if s.stopAfterPages > 0 && s.pages >= s.stopAfterPages {
		return ErrStopped
	}
	return nil
}

func (s *recordingSink) Complete(total int) error {
	s.events = append(s.events, fmt.Sprintf("complete:%d", total))
	return nil
}

func (s *recordingSink) Fail(err error) {
	s.err = err
	s.events = append(s.events, "fail")
}

func (s *recordingSink) terminals() int {
	n := 0
	for _, e := range s.events {
		if e == "fail" || strings.HasPrefix(e, "complete:") {
			n++
		}
	}
	return n
}
