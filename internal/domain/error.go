package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Translation job errors
	ErrEmptySubtitle     = errors.New("subtitle contains no cues")
	ErrJobNotFound       = errors.New("translate job not found")
	ErrTranslationFailed = errors.New("translation failed")
	ErrStoreUnavailable  = errors.New("job store unavailable")
)
