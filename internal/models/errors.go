package models

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrNotInitialized is returned when an operation is attempted before
	// the owning component's Initialize has succeeded
	ErrNotInitialized = errors.New("not initialized")

	// ErrNoPlatforms is returned when a campaign is submitted without target platforms
	ErrNoPlatforms = errors.New("no target platforms specified")

	// ErrUnknownPlatform is returned when a campaign targets a platform with no registered adapter
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrContentGeneration is returned when the content generation call fails.
	// It is fatal to the whole campaign: without content there is nothing to publish.
	ErrContentGeneration = errors.New("content generation failed")
)
