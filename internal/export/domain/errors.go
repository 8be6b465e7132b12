package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("organization scope missing or invalid")
	ErrInvalidFormat       = errors.New("unrecognized export format")
	ErrInvalidDateRange    = errors.New("date_to must not be before date_from")
	ErrDateRangeTooLarge   = errors.New("date range exceeds 365 days")
	ErrJobNotFound         = errors.New("export job not found")
	ErrJobNotPending       = errors.New("export job is not pending")
	ErrArtifactUnavailable = errors.New("export artifact not available")
)
