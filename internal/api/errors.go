package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"finance_tracker/internal/middleware" // Caller identity
	"finance_tracker/internal/service"    // Error kinds

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusFor maps a service error to its HTTP status. ok is false for internal failures.
func statusFor(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, true
	}
	return http.StatusInternalServerError, false
}

// respondError converts err into exactly one JSON error response
func respondError(c *gin.Context, op string, err error) {
	status, ok := statusFor(err)
	if ok {
		c.JSON(status, gin.H{"message": err.Error()})
		return
	}
	// Log the error with context
	logrus.WithFields(logrus.Fields{
		"op":      op,                     // Operation name
		"user_id": middleware.CallerID(c), // Caller, empty on public routes
		"error":   err.Error(),            // Error message
	}).Error("Request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}
