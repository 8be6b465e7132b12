package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	scheduledomain "github.com/railzwaylabs/audittrail/internal/schedule/domain"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

type validationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *validationError) Error() string { return e.Message }

func newValidationError(field, code, message string) *validationError {
	return &validationError{Field: field, Code: code, Message: message}
}

// AbortWithError maps domain errors onto the API error envelope. Anything
// unmapped is treated as internal and its detail kept out of the response.
func AbortWithError(c *gin.Context, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr})
		return
	}

	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, exportdomain.ErrInvalidFormat),
		errors.Is(err, exportdomain.ErrInvalidDateRange),
		errors.Is(err, exportdomain.ErrDateRangeTooLarge),
		errors.Is(err, scheduledomain.ErrInvalidName),
		errors.Is(err, scheduledomain.ErrInvalidFrequency),
		errors.Is(err, scheduledomain.ErrInvalidDayOfWeek),
		errors.Is(err, scheduledomain.ErrInvalidDayOfMonth),
		errors.Is(err, scheduledomain.ErrInvalidTimeOfDay),
		errors.Is(err, scheduledomain.ErrInvalidLookback),
		errors.Is(err, scheduledomain.ErrInvalidTimezone):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, exportdomain.ErrInvalidOrganization),
		errors.Is(err, scheduledomain.ErrInvalidOrganization):
		status = http.StatusUnauthorized
		message = "unauthorized"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, exportdomain.ErrJobNotFound),
		errors.Is(err, scheduledomain.ErrScheduleNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, exportdomain.ErrArtifactUnavailable):
		status = http.StatusGone
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": message}})
}
