package youtube

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAllPagination(t *testing.T) {
	tests := []struct {
		name      string
		videos    int
		pageSize  int
		wantPages int
	}{
		{"empty channel", 0, 50, 1},
		{"single page", 10, 50, 1},
		{"exact page", 50, 50, 1},
		{"73 videos", 73, 50, 2},
		{"small pages", 23, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAPI(t)
			fake.addChannel(testChannelID, "Test", tt.videos)
			f := NewFetcher(newTestClient(t, fake), 0)

			opts := DefaultOptions()
			opts.MaxResultsPerPage = tt.pageSize
			videos, err := f.FetchAll(context.Background(), testChannelID, opts)
			require.NoError(t, err)

			assert.Len(t, videos, tt.videos)
			assert.Equal(t, tt.wantPages, fake.count("search.video"))
			if tt.videos > 0 {
				assert.Equal(t, tt.wantPages, fake.count("videos"))
			}
		})
	}
}

func TestFetchAllMergeCompleteness(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 12)
	fake.noDetails["vid-003"] = true
	fake.noDetails["vid-007"] = true
	fake.tags["vid-000"] = []string{"intro"}
	f := NewFetcher(newTestClient(t, fake), 0)

	opts := DefaultOptions()
	opts.MaxResultsPerPage = 5
	videos, err := f.FetchAll(context.Background(), testChannelID, opts)
	require.NoError(t, err)
	require.Len(t, videos, 12)

	seen := map[string]int{}
	for i, v := range videos {
		seen[v.VideoID]++
		assert.Equal(t, fake.uploads[testChannelID][i], v.VideoID, "order must follow the listing")
		assert.False(t, v.PublishedAt.IsZero())
		assert.NotNil(t, v.Tags)
		assert.Equal(t, "https://img.example/"+v.VideoID+"/medium.jpg", v.ThumbnailURL)

		if fake.noDetails[v.VideoID] {
			assert.Empty(t, v.Duration, v.VideoID)
			assert.Zero(t, v.ViewCount, v.VideoID)
		} else {
			assert.NotEmpty(t, v.Duration, v.VideoID)
			assert.NotZero(t, v.ViewCount, v.VideoID)
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
	assert.Equal(t, []string{"intro"}, videos[0].Tags)

	// Every detail batch only holds ids of its own page.
	require.Len(t, fake.detailBatches, 3)
	assert.Len(t, fake.detailBatches[0], 5)
	assert.Len(t, fake.detailBatches[2], 2)
}

func TestFetchAllWithoutDetails(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 8)
	f := NewFetcher(newTestClient(t, fake), 0)

	opts := DefaultOptions()
	opts.IncludeDetails = false
	videos, err := f.FetchAll(context.Background(), testChannelID, opts)
	require.NoError(t, err)

	assert.Len(t, videos, 8)
	assert.Zero(t, fake.count("videos"))
	for _, v := range videos {
		assert.NotNil(t, v.Tags)
		assert.Empty(t, v.Duration)
	}
}

func TestFetchAllPassesOptions(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 3)
	f := NewFetcher(newTestClient(t, fake), 0)

	opts := Options{
		MaxResultsPerPage: 500,
		Order:             "VIEWCOUNT",
		PublishedAfter:    "2024-01-01T00:00:00Z",
		PublishedBefore:   "2024-12-31T00:00:00Z",
	}
	_, err := f.FetchAll(context.Background(), testChannelID, opts)
	require.NoError(t, err)

	require.Len(t, fake.listingQuery, 1)
	q := fake.listingQuery[0]
	assert.Equal(t, testChannelID, q["channelId"])
	assert.Equal(t, "viewCount", q["order"])
	assert.Equal(t, "50", q["maxResults"])
	assert.Empty(t, q["pageToken"])
	assert.Equal(t, "2024-01-01T00:00:00Z", q["publishedAfter"])
	assert.Equal(t, "2024-12-31T00:00:00Z", q["publishedBefore"])
}

func TestFetchAllFollowsCursor(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 7)
	f := NewFetcher(newTestClient(t, fake), 0)

	opts := DefaultOptions()
	opts.MaxResultsPerPage = 3
	_, err := f.FetchAll(context.Background(), testChannelID, opts)
	require.NoError(t, err)

	var tokens []string
	for _, q := range fake.listingQuery {
		tokens = append(tokens, q["pageToken"])
	}
	assert.Equal(t, []string{"", "page-3", "page-6"}, tokens)
}

func TestFetchAllInvalidOptions(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"order", Options{Order: "newest"}, "order"},
		{"after", Options{PublishedAfter: "yesterday"}, "publishedAfter"},
		{"before", Options{PublishedBefore: "2024-13-01"}, "publishedBefore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAPI(t)
			f := NewFetcher(newTestClient(t, fake), 0)

			_, err := f.FetchAll(context.Background(), testChannelID, tt.opts)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Zero(t, fake.total())
		})
	}
}

func TestFetchAllNoPartialResult(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*fakeAPI)
		wantOp    string
		wantCalls int
	}{
		{"listing fails on page 2", func(f *fakeAPI) { f.failListingPage = 2 }, "search.list", 2},
		{"details fail", func(f *fakeAPI) { f.failDetails = true }, "videos.list", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAPI(t)
			fake.addChannel(testChannelID, "Test", 12)
			tt.setup(fake)
			f := NewFetcher(newTestClient(t, fake), 0)

			opts := DefaultOptions()
			opts.MaxResultsPerPage = 5
			videos, err := f.FetchAll(context.Background(), testChannelID, opts)
			assert.Nil(t, videos)

			var ue *UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.wantOp, ue.Op)
			assert.Equal(t, tt.wantCalls, fake.count("search.video"), "no retry and no further pages")
		})
	}
}

func TestFetchStreamEventOrder(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 73)
	f := NewFetcher(newTestClient(t, fake), 0)

	sink := &recordingSink{}
	err := f.FetchStream(context.Background(), testChannelID, DefaultOptions(), sink)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"page:50", "progress:page",
		"page:23", "progress:page",
		"complete:73",
	}, sink.events)
	assert.Len(t, sink.videos, 73)
}

func TestFetchStreamProgressReflectsCompletedWork(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 12)
	f := NewFetcher(newTestClient(t, fake), 0)

	var progress []ProgressEvent
	sink := &progressSink{onProgress: func(ev ProgressEvent) {
		progress = append(progress, ev)
		// Reported after the page's calls and before the next listing call.
		assert.Equal(t, ev.Page, fake.count("search.video"))
	}}

	opts := DefaultOptions()
	opts.MaxResultsPerPage = 5
	require.NoError(t, f.FetchStream(context.Background(), testChannelID, opts, sink))

	require.Len(t, progress, 3)
	for i, ev := range progress {
		assert.Equal(t, StagePage, ev.Stage)
		assert.Equal(t, i+1, ev.Page)
	}
	assert.Equal(t, []int{5, 10, 12}, []int{progress[0].TotalFetched, progress[1].TotalFetched, progress[2].TotalFetched})
	assert.True(t, progress[0].HasMore)
	assert.True(t, progress[1].HasMore)
	assert.False(t, progress[2].HasMore)
}

func TestFetchStreamErrorRun(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 12)
	fake.failListingPage = 2
	f := NewFetcher(newTestClient(t, fake), 0)

	sink := &recordingSink{}
	opts := DefaultOptions()
	opts.MaxResultsPerPage = 5
	err := f.FetchStream(context.Background(), testChannelID, opts, sink)
	require.Error(t, err)

	assert.Equal(t, []string{"page:5", "progress:page", "fail"}, sink.events)
	assert.Equal(t, 1, sink.terminals())
	assert.True(t, IsUpstream(sink.err))
	assert.Len(t, sink.videos, 5, "already delivered videos stand")
}

func TestFetchStreamSinkStops(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 20)
	f := NewFetcher(newTestClient(t, fake), 0)

	sink := &recordingSink{stopAfterPages: 1}
	opts := DefaultOptions()
	opts.MaxResultsPerPage = 5
	err := f.FetchStream(context.Background(), testChannelID, opts, sink)

	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 1, fake.count("search.video"))
	assert.Zero(t, sink.terminals())
}

func TestFetchStreamCancelStopsAtCheckpoint(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 20)
	f := NewFetcher(newTestClient(t, fake), 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &progressSink{onProgress: func(ev ProgressEvent) {
		if ev.Page == 2 {
			cancel()
		}
	}}
	opts := DefaultOptions()
	opts.MaxResultsPerPage = 5
	err := f.FetchStream(ctx, testChannelID, opts, sink)

	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 2, fake.count("search.video"))
	assert.False(t, sink.completed)
	assert.NoError(t, sink.err)
}

func TestFetchStreamCancelDuringDelay(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 20)
	f := NewFetcher(newTestClient(t, fake), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	sink := &progressSink{onProgress: func(ProgressEvent) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
	}}

	opts := DefaultOptions()
	opts.MaxResultsPerPage = 5

	done := make(chan error, 1)
	go func() { done <- f.FetchStream(ctx, testChannelID, opts, sink) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not stop during the page delay")
	}
	assert.Equal(t, 1, fake.count("search.video"))
}

func TestFetchStreamPageDelay(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 9)
	// Pages slower than the delay must still be followed by the full delay.
	fake.latency = 70 * time.Millisecond
	f := NewFetcher(newTestClient(t, fake), DefaultPageDelay)

	var pageDone []time.Time
	sink := &progressSink{onProgress: func(ev ProgressEvent) {
		pageDone = append(pageDone, time.Now())
	}}

	opts := DefaultOptions()
	opts.MaxResultsPerPage = 3
	require.NoError(t, f.FetchStream(context.Background(), testChannelID, opts, sink))
	require.True(t, sink.completed)

	listings := fake.listingTimes()
	require.Len(t, listings, 3)
	require.Len(t, pageDone, 3)
	for i := 1; i < len(listings); i++ {
		gap := listings[i].Sub(pageDone[i-1])
		assert.GreaterOrEqual(t, gap, DefaultPageDelay, "gap after page %d", i)
	}
}

func TestFetchStreamNoDelayAfterLastPage(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 3)
	f := NewFetcher(newTestClient(t, fake), time.Hour)

	done := make(chan error, 1)
	go func() {
		_, err := f.FetchAll(context.Background(), testChannelID, DefaultOptions())
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("single page fetch waited for the page delay")
	}
}

func TestFetchAllRequestTimeout(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 3)
	fake.latency = 300 * time.Millisecond
	f := NewFetcher(newTestClient(t, fake, WithRequestTimeout(50*time.Millisecond)), 0)

	videos, err := f.FetchAll(context.Background(), testChannelID, DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, videos)
	assert.True(t, IsUpstream(err))
	assert.NotErrorIs(t, err, ErrStopped)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "search.list", ue.Op)
}

func TestFetchStreamDetailTimeout(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 3)
	c := newTestClient(t, fake, WithRequestTimeout(150*time.Millisecond))
	// The listing call answers in time, the detail call does not.
	fake.latency = 100 * time.Millisecond
	f := NewFetcher(c, 0)
	f.details = NewDetailFetcher(newTestClient(t, fake, WithRequestTimeout(50*time.Millisecond)))

	sink := &recordingSink{}
	err := f.FetchStream(context.Background(), testChannelID, DefaultOptions(), sink)
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.NotErrorIs(t, err, ErrStopped)
	assert.Equal(t, 1, sink.terminals())
	assert.Equal(t, err, sink.err)
}

func TestFetchAllMalformedPublishedAt(t *testing.T) {
	fake := newFakeAPI(t)
	fake.addChannel(testChannelID, "Test", 3)
	fake.badPublishedAt["vid-001"] = true
	f := NewFetcher(newTestClient(t, fake), 0)

	videos, err := f.FetchAll(context.Background(), testChannelID, DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, videos)
	assert.True(t, IsUpstream(err))
	assert.Contains(t, err.Error(), "vid-001")
	assert.Zero(t, fake.count("videos"))
}

// progressSink calls onProgress for every progress event.
type progressSink struct {
	onProgress func(ProgressEvent)
	completed  bool
	err        error
}

func (s *progressSink) Progress(ev ProgressEvent) error {
	s.onProgress(ev)
	return nil
}

func (s *progressSink) Page([]Video) error { return nil }

func (s *progressSink) Complete(int) error {
	s.completed = true
	return nil
}

func (s *progressSink) Fail(err error) { s.err = err }
