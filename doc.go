// Package ytcatalog lists the complete video catalog of a YouTube channel.
//
// A channel can be given as a canonical id, a channel URL, a /c/, /user/ or
// /@ URL, or a free-text name. The input is resolved to a channel id, the
// channel metadata is read, and every video of the channel is listed page by
// page through the YouTube Data API v3, each page enriched with duration,
// statistics and tags.
//
// Quick Start
//
//	ctx := context.Background()
//	info, videos, err := ytcatalog.FetchChannel(ctx, os.Getenv("YOUTUBE_API_KEY"), "@GoogleDevelopers")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%s: %d videos\n", info.Title, len(videos))
//
// Configuration
//
// The CLI and server load settings from several sources:
//
//  1. Environment variables and a .env file (highest priority)
//  2. Config file (ytcatalog.json or ~/.config/ytcatalog/ytcatalog.json)
//  3. Default values (lowest priority)
//
// Environment variables:
//
//   - YOUTUBE_API_KEY: Data API key (required)
//   - YTCATALOG_API_ENDPOINT: Data API base URL override
//   - PORT, YTCATALOG_ADDR: HTTP listen address
//   - YTCATALOG_PAGE_DELAY: minimum spacing between listing calls
//   - YTCATALOG_MAX_RESULTS: videos per listing page (1-50)
//   - YTCATALOG_ORDER: default listing order
//
// Error Handling
//
//	var nf *ytcatalog.NotFoundError
//	if errors.As(err, &nf) {
//		fmt.Println("no such channel:", nf.Query)
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - youtube: resolution, channel info, paged fetching and streaming
//   - server: the HTTP API with the Server-Sent Events stream
//   - storage: JSON exports of fetched catalogs
//   - config: configuration management
package ytcatalog
