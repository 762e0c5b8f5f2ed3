package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrServiceUnavailable indicates the image generator could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrNoBookmark indicates the user has no bookmarked chunk in the metatext
	ErrNoBookmark = errors.New("no bookmark set")

	// ErrImageNotReady indicates a single availability probe did not find a loadable image
	ErrImageNotReady = errors.New("image not ready")

	// ErrImagePollTimeout indicates the image never became loadable before the poll timeout
	ErrImagePollTimeout = errors.New("image poll timed out")

	// ErrImagePollCancelled indicates the poll was aborted before it resolved
	ErrImagePollCancelled = errors.New("image poll cancelled")
)

// ImagePollTimeoutError carries the details of a timed out availability poll.
// errors.Is(err, ErrImagePollTimeout) matches it.
type ImagePollTimeoutError struct {
	URL      string
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
}

func (e *ImagePollTimeoutError) Error() string {
	return fmt.Sprintf("image %s not available after %s (timeout %s, %d attempts)",
		e.URL, e.Elapsed.Round(time.Millisecond), e.Timeout, e.Attempts)
}

// Is reports whether target is ErrImagePollTimeout
func (e *ImagePollTimeoutError) Is(target error) bool {
	return target == ErrImagePollTimeout
}
