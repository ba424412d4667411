package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ytcatalog/youtube"
)

// Handler serves the catalog API.
type Handler struct {
	catalog  Catalog
	defaults youtube.Options
}

// NewHandler creates a Handler; defaults seed the options of every request.
func NewHandler(catalog Catalog, defaults youtube.Options) *Handler {
	return &Handler{
		catalog:  catalog,
		defaults: defaults,
	}
}

// RegisterHandler registers the API routes on r.
func (s *Handler) RegisterHandler(r *gin.Engine) *Handler {
	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/channel", s.channel)
	api.GET("/videos", s.videos)
	api.GET("/videos/stream", s.stream)
	return s
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Message:   "YouTube channel catalog API is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Handler) channel(c *gin.Context) {
	input, ok := channelParam(c)
	if !ok {
		abortWithError(c, errMissingChannel)
		return
	}
	info, err := s.catalog.Channel(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Handler) videos(c *gin.Context) {
	input, ok := channelParam(c)
	if !ok {
		abortWithError(c, errMissingChannel)
		return
	}
	opts, err := s.options(c, true)
	if err != nil {
		abortWithError(c, err)
		return
	}
	_, videos, err := s.catalog.Videos(c.Request.Context(), input, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func channelParam(c *gin.Context) (string, bool) {
	input := strings.TrimSpace(c.Query("channel"))
	return input, input != ""
}

// options reads the optional fetch parameters of a request on top of the
// handler defaults. includeDetails is only honored when allowDetails is set.
func (s *Handler) options(c *gin.Context, allowDetails bool) (youtube.Options, error) {
	opts := s.defaults

	if v := c.Query("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, &youtube.ValidationError{Field: "maxResults", Reason: "not a number: " + v}
		}
		opts.MaxResultsPerPage = n
	}
	if v := c.Query("order"); v != "" {
		opts.Order = youtube.Order(v)
	}
	if v := c.Query("publishedAfter"); v != "" {
		opts.PublishedAfter = v
	}
	if v := c.Query("publishedBefore"); v != "" {
		opts.PublishedBefore = v
	}
	if v := c.Query("includeDetails"); v != "" && allowDetails {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, &youtube.ValidationError{Field: "includeDetails", Reason: "not a boolean: " + v}
		}
		opts.IncludeDetails = b
	}

	return opts.Normalize()
}
