package listening

import "errors"

var (
	ErrEmptyQuery          = errors.New("query must not be empty")
	ErrNoSources           = errors.New("at least one platform is required")
	ErrInvalidLimit        = errors.New("max results per platform must be between 1 and 100")
	ErrUnknownSource       = errors.New("unknown platform")
	ErrSourceNotConfigured = errors.New("platform is not configured")
	ErrAllSourcesFailed    = errors.New("all platforms failed")
)

// ValidationError reports a request rejected before any fetch
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
