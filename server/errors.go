package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ytcatalog/youtube"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

var errMissingChannel = &youtube.ValidationError{Field: "channel", Reason: "parameter is required"}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case youtube.IsValidation(err):
		return http.StatusBadRequest
	case youtube.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as a JSON error body. A stopped session means
// the client is gone, so nothing is written.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, youtube.ErrStopped) {
		log.WithField("path", c.Request.URL.Path).Debug("client went away")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(statusFor(err), errorResponse{Error: err.Error()})
}
