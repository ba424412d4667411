// Package main provides the ytcatalog CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ytcatalog/config"
	ythttp "ytcatalog/http"
	"ytcatalog/server"
	"ytcatalog/storage"
	"ytcatalog/youtube"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags override the loaded configuration for every command.
type globalFlags struct {
	apiKey    string
	endpoint  string
	logLevel  string
	logFormat string
}

// newRootCmd creates the root command for the ytcatalog CLI.
func newRootCmd() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:          "ytcatalog",
		Short:        "Fetch the complete video catalog of a YouTube channel",
		Long:         "ytcatalog resolves a YouTube channel from a URL, handle, name or id and lists every video through the YouTube Data API.",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("ytcatalog version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.apiKey, "api-key", "", "YouTube Data API key (default $YOUTUBE_API_KEY)")
	pf.StringVar(&g.endpoint, "api-endpoint", "", "Data API base URL override")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "", "log format (text or json)")

	rootCmd.AddCommand(newServeCmd(&g))
	rootCmd.AddCommand(newFetchCmd(&g))
	rootCmd.AddCommand(newResolveCmd(&g))

	return rootCmd
}

// loadConfig loads the configuration and applies the global flags on top.
func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.apiKey != "" {
		cfg.APIKey = g.apiKey
	}
	if g.endpoint != "" {
		cfg.APIEndpoint = g.endpoint
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCatalog builds the Data API client and catalog described by cfg.
func newCatalog(ctx context.Context, cfg *config.Config) (*youtube.Catalog, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	opts := []youtube.ClientOption{
		youtube.WithRequestTimeout(cfg.RequestTimeout.Std()),
		youtube.WithTransport(ythttp.NewTransport(ythttp.DefaultTransportConfig())),
		youtube.WithUserAgent("ytcatalog/" + version),
	}
	if cfg.APIEndpoint != "" {
		opts = append(opts, youtube.WithEndpoint(cfg.APIEndpoint))
	}
	client, err := youtube.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return youtube.NewCatalog(client, cfg.PageDelay.Std()), nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr, staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API",
		Long:  "Serve the bulk, streaming and channel endpoints, and optionally a static browser UI.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if staticDir != "" {
				cfg.StaticDir = staticDir
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			catalog, err := newCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			srv := server.New(server.Config{
				Addr:            cfg.Addr,
				StaticDir:       cfg.StaticDir,
				ShutdownTimeout: cfg.ShutdownTimeout.Std(),
				Defaults:        cfg.FetchOptions(),
			}, catalog)
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":3000\")")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory with the browser UI")
	return cmd
}

type fetchFlags struct {
	order      string
	maxPerPage int
	after      string
	before     string
	noDetails  bool
	save       bool
	outputDir  string
	progress   bool
	asJSON     bool
}

func newFetchCmd(g *globalFlags) *cobra.Command {
	var f fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch <channel>",
		Short: "List every video of a channel",
		Long:  "Resolve a channel URL, handle, name or id and list all of its videos.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			catalog, err := newCatalog(ctx, cfg)
			if err != nil {
				return err
			}

			opts := cfg.FetchOptions()
			if f.order != "" {
				opts.Order = youtube.Order(f.order)
			}
			if f.maxPerPage > 0 {
				opts.MaxResultsPerPage = f.maxPerPage
			}
			opts.PublishedAfter = f.after
			opts.PublishedBefore = f.before
			opts.IncludeDetails = !f.noDetails

			var (
				info   *youtube.ChannelInfo
				videos []youtube.Video
			)
			if f.progress {
				info, videos, err = fetchWithProgress(ctx, catalog, args[0], opts, cmd.ErrOrStderr())
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "Fetching videos from %s...\n", args[0])
				info, videos, err = catalog.Videos(ctx, args[0], opts)
			}
			if err != nil {
				return err
			}

			if f.save {
				dir := cfg.OutputDir
				if f.outputDir != "" {
					dir = f.outputDir
				}
				path, err := storage.SaveCatalog(dir, info, videos)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d videos to %s\n", len(videos), path)
			}

			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(videos)
			}
			printVideos(cmd.OutOrStdout(), videos)
			fmt.Fprintf(cmd.ErrOrStderr(), "\nTotal: %d videos from %s\n", len(videos), info.Title)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.order, "order", "", "sort order: date, rating, relevance, title, videoCount, viewCount")
	fl.IntVar(&f.maxPerPage, "max-per-page", 0, "videos per upstream page (1-50)")
	fl.StringVar(&f.after, "after", "", "only videos published after this time (RFC3339)")
	fl.StringVar(&f.before, "before", "", "only videos published before this time (RFC3339)")
	fl.BoolVar(&f.noDetails, "no-details", false, "skip duration, statistics and tags")
	fl.BoolVar(&f.save, "save", false, "save the catalog as JSON in the output directory")
	fl.StringVar(&f.outputDir, "output-dir", "", "output directory for --save (default from config)")
	fl.BoolVar(&f.progress, "progress", false, "report progress on stderr while fetching")
	fl.BoolVar(&f.asJSON, "json", false, "print the videos as JSON instead of a table")
	return cmd
}

// progressPrinter collects a streamed session and reports it on out.
type progressPrinter struct {
	out    io.Writer
	info   *youtube.ChannelInfo
	videos []youtube.Video
	err    error
}

func (p *progressPrinter) OnProgress(ev youtube.ProgressEvent) error {
	fmt.Fprintf(p.out, "[%s] %s\n", ev.Stage, ev.Message)
	return nil
}

func (p *progressPrinter) OnVideo(v youtube.Video, count int) error {
	p.videos = append(p.videos, v)
	return nil
}

func (p *progressPrinter) OnComplete(info *youtube.ChannelInfo, total int) error {
	p.info = info
	fmt.Fprintf(p.out, "[complete] %d videos\n", total)
	return nil
}

func (p *progressPrinter) OnError(err error) {
	p.err = err
	fmt.Fprintf(p.out, "[error] %v\n", err)
}

// fetchWithProgress runs a streaming session. Streaming always includes
// video details.
func fetchWithProgress(ctx context.Context, catalog *youtube.Catalog, input string, opts youtube.Options, out io.Writer) (*youtube.ChannelInfo, []youtube.Video, error) {
	p := &progressPrinter{out: out, videos: []youtube.Video{}}
	if err := catalog.Stream(ctx, input, opts, youtube.NewEmitter(p)); err != nil {
		return nil, nil, err
	}
	if p.info == nil {
		return nil, nil, errors.New("stream ended without channel info")
	}
	return p.info, p.videos, nil
}

func newResolveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <channel>",
		Short: "Resolve a channel and show its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			catalog, err := newCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			info, err := catalog.Channel(ctx, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", info.ID)
			fmt.Fprintf(w, "TITLE\t%s\n", info.Title)
			fmt.Fprintf(w, "URL\t%s\n", info.URL())
			fmt.Fprintf(w, "SUBSCRIBERS\t%d\n", info.SubscriberCount)
			fmt.Fprintf(w, "VIDEOS\t%d\n", info.VideoCount)
			fmt.Fprintf(w, "VIEWS\t%d\n", info.ViewCount)
			return w.Flush()
		},
	}
}

func printVideos(out io.Writer, videos []youtube.Video) {
	if len(videos) == 0 {
		fmt.Fprintln(out, "No videos found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO ID\tPUBLISHED\tTITLE\tDURATION\tVIEWS")
	for _, v := range videos {
		views := ""
		if v.ViewCount > 0 {
			views = fmt.Sprintf("%d", v.ViewCount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.VideoID,
			v.PublishedAt.Format("2006-01-02"),
			truncate(v.Title, 50),
			v.Duration,
			views,
		)
	}
	if err := w.Flush(); err != nil {
		log.WithError(err).Warn("failed to print videos")
	}
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
