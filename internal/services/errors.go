package services

import "errors"

// Shared service-level errors mapped to HTTP statuses by the handlers.
// Not-found is used deliberately where existence of an out-of-scope resource
// must not be revealed.
var (
	ErrForbidden           = errors.New("forbidden")
	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrInvalidStage        = errors.New("invalid application stage")
	ErrInvalidRating       = errors.New("overall rating must be between 1 and 5")
	ErrInvalidRecommend    = errors.New("invalid recommendation")
)
