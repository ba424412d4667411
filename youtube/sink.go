package youtube

import (
	"github.com/pkg/errors"
)

// Sink receives the output of a fetch session in emission order: progress
// events and page batches, then exactly one Complete or Fail. Methods are
// called synchronously from the fetching goroutine, never concurrently.
//
// Returning ErrStopped from Progress, Page or Complete stops the session
// without a terminal event. Any other error aborts the session as a failure.
type Sink interface {
	Progress(ev ProgressEvent) error
	Page(videos []Video) error
	Complete(total int) error
	Fail(err error)
}

// Collector is a Sink that accumulates every delivered page.
type Collector struct {
	videos []Video
	total  int
	done   bool
	err    error
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{videos: []Video{}}
}

func (c *Collector) Progress(ProgressEvent) error { return nil }

func (c *Collector) Page(videos []Video) error {
	c.videos = append(c.videos, videos...)
	return nil
}

func (c *Collector) Complete(total int) error {
	c.total = total
	c.done = true
	return nil
}

func (c *Collector) Fail(err error) {
	c.err = err
}

// Videos returns the accumulated videos in delivery order.
func (c *Collector) Videos() []Video { return c.videos }

// Err returns the failure reported to the collector, if any.
func (c *Collector) Err() error { return c.err }

// Done reports whether the session completed successfully.
func (c *Collector) Done() bool { return c.done }

// EventHandler consumes per-item session events. Handlers are invoked
// synchronously and in order; count is the 1-based running total of videos.
type EventHandler interface {
	OnProgress(ev ProgressEvent) error
	OnVideo(video Video, count int) error
	OnComplete(info *ChannelInfo, total int) error
	OnError(err error)
}

// Emitter is a Sink that pushes every event to an EventHandler as it
// happens, splitting pages into single videos. It delivers at most one
// terminal event.
type Emitter struct {
	handler EventHandler
	info    *ChannelInfo
	count   int
	closed  bool
}

// NewEmitter creates an Emitter delivering to h.
func NewEmitter(h EventHandler) *Emitter {
	return &Emitter{handler: h}
}

func (e *Emitter) Progress(ev ProgressEvent) error {
	if e.closed {
		return ErrStopped
	}
	if ev.ChannelInfo != nil {
		e.info = ev.ChannelInfo
	}
	return e.stopOnError(e.handler.OnProgress(ev))
}

func (e *Emitter) Page(videos []Video) error {
	if e.closed {
		return ErrStopped
	}
	for _, v := range videos {
		e.count++
		if err := e.handler.OnVideo(v, e.count); err != nil {
			return e.stopOnError(err)
		}
	}
	return nil
}

func (e *Emitter) Complete(total int) error {
	if e.closed {
		return ErrStopped
	}
	e.closed = true
	return e.handler.OnComplete(e.info, total)
}

func (e *Emitter) Fail(err error) {
	if e.closed {
		return
	}
	e.closed = true
	e.handler.OnError(err)
}

// Count returns the number of videos delivered so far.
func (e *Emitter) Count() int { return e.count }

// stopOnError marks the emitter closed when the handler asked to stop so
// that no terminal event follows a consumer stop.
func (e *Emitter) stopOnError(err error) error {
	if errors.Is(err, ErrStopped) {
		e.closed = true
	}
	return err
}
