// Package server exposes the channel catalog over HTTP.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ytcatalog/youtube"
)

// Catalog runs fetch sessions. *youtube.Catalog implements it.
type Catalog interface {
	Channel(ctx context.Context, input string) (*youtube.ChannelInfo, error)
	Videos(ctx context.Context, input string, opts youtube.Options) (*youtube.ChannelInfo, []youtube.Video, error)
	Stream(ctx context.Context, input string, opts youtube.Options, sink youtube.Sink) error
}

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string
	// StaticDir, when set, serves the browser UI for unmatched routes.
	StaticDir string
	// ShutdownTimeout bounds the graceful shutdown.
	ShutdownTimeout time.Duration
	// Defaults seeds the fetch options of every request.
	Defaults youtube.Options
}

// Server is the HTTP front of a Catalog.
type Server struct {
	cfg    Config
	engine *gin.Engine
}

// New builds the gin engine with every route registered.
func New(cfg Config, catalog Catalog) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Cache-Control"},
	}))

	NewHandler(catalog, cfg.Defaults).RegisterHandler(r)

	if cfg.StaticDir != "" {
		log.WithField("dir", cfg.StaticDir).Info("serving static ui")
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	}

	return &Server{cfg: cfg, engine: r}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on the configured address until ctx is done, then shuts
// down gracefully. Open streams are stopped when shutdown begins.
func (s *Server) Serve(ctx context.Context) error {
	base, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("serving http at %v", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "failed to serve http")
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	stopStreams()

	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "failed to shutdown http server")
	}
	return nil
}

// requestLogger logs one line per request once it has been served.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last()).Warn("http request failed")
			return
		}
		entry.Info("http request")
	}
}
