// Package views turns failures into the JSON error states the storefront
// renders: unauthorized, forbidden, not_found or a generic error.
package views

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/session"
)

const (
	Unauthorized = "unauthorized"
	Forbidden    = "forbidden"
	NotFound     = "not_found"
	Generic      = "error"
)

var messages = map[string]string{
	Unauthorized: "please sign in again",
	Forbidden:    "you do not have access to this resource",
	NotFound:     "not found",
	Generic:      "something went wrong, please try again",
}

// Of names the view err routes to.
func Of(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnauthenticated), errors.Is(err, session.ErrNoSession):
		return Unauthorized
	case errors.Is(err, backend.ErrForbidden):
		return Forbidden
	case errors.Is(err, backend.ErrNotFound):
		return NotFound
	}
	return Generic
}

// Message is the user-facing text of a view.
func Message(view string) string {
	return messages[view]
}

// Fail answers the request with the view for err and stops the chain.
func Fail(c *gin.Context, log logrus.FieldLogger, err error) {
	view := Of(err)
	status := backend.StatusOf(err)
	if view == Unauthorized {
		status = http.StatusUnauthorized
	}
	if view == Generic {
		log.WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"device": c.GetString("device_id"),
		}).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": messages[view], "view": view})
}

// BadRequest answers a request the storefront should not have sent.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
