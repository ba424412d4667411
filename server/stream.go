package server

import (
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ytcatalog/youtube"
)

// Event types of the catalog stream.
const (
	EventConnected = "connected"
	EventProgress  = "progress"
	EventVideo     = "video"
	EventComplete  = "complete"
	EventError     = "error"
)

type connectedMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

type progressMessage struct {
	Type string `json:"type"`
	youtube.ProgressEvent
}

type videoMessage struct {
	Type  string        `json:"type"`
	Video youtube.Video `json:"video"`
	Count int           `json:"count"`
}

type completeMessage struct {
	Type        string               `json:"type"`
	ChannelInfo *youtube.ChannelInfo `json:"channelInfo"`
	TotalVideos int                  `json:"totalVideos"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Handler) stream(c *gin.Context) {
	input, ok := channelParam(c)
	if !ok {
		abortWithError(c, errMissingChannel)
		return
	}
	opts, err := s.options(c, false)
	if err != nil {
		abortWithError(c, err)
		return
	}

	session := uuid.NewString()
	logger := log.WithFields(log.Fields{
		"session": session,
		"channel": input,
	})
	logger.Info("stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	w := &eventWriter{c: c}
	if err := w.send(connectedMessage{Type: EventConnected, SessionID: session}); err != nil {
		logger.Info("stream closed before start")
		return
	}

	err = s.catalog.Stream(c.Request.Context(), input, opts, youtube.NewEmitter(w))
	switch {
	case errors.Is(err, youtube.ErrStopped):
		logger.WithField("delivered", w.delivered).Info("stream stopped by client")
	case err != nil:
		logger.WithError(err).Warn("stream failed")
	default:
		logger.WithField("delivered", w.delivered).Info("stream complete")
	}
}

// eventWriter renders catalog events as server-sent events.
type eventWriter struct {
	c         *gin.Context
	delivered int
}

func (w *eventWriter) OnProgress(ev youtube.ProgressEvent) error {
	return w.send(progressMessage{Type: EventProgress, ProgressEvent: ev})
}

func (w *eventWriter) OnVideo(v youtube.Video, count int) error {
	if err := w.send(videoMessage{Type: EventVideo, Video: v, Count: count}); err != nil {
		return err
	}
	w.delivered = count
	return nil
}

func (w *eventWriter) OnComplete(info *youtube.ChannelInfo, total int) error {
	return w.send(completeMessage{Type: EventComplete, ChannelInfo: info, TotalVideos: total})
}

func (w *eventWriter) OnError(err error) {
	_ = w.send(errorMessage{Type: EventError, Message: err.Error()})
}

// send writes one event and flushes it. A gone client is reported as
// youtube.ErrStopped so the session ends quietly.
func (w *eventWriter) send(msg interface{}) error {
	if err := w.c.Request.Context().Err(); err != nil {
		return youtube.ErrStopped
	}
	w.c.Render(-1, sse.Event{Data: msg})
	if w.c.IsAborted() {
		return youtube.ErrStopped
	}
	w.c.Writer.Flush()
	return nil
}
