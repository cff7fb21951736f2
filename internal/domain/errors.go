package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// UpstreamError represents a failure talking to an external service (LLM, retailer page)
type UpstreamError struct {
	Service   string // e.g. "openrouter", "scraper"
	Op        string // Operation that failed (e.g. "complete", "fetch")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *UpstreamError) Error() string {
	return e.Service + " " + e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) IsRetriable() bool {
	return e.Retriable
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new retriable upstream error
func NewUpstreamError(service, op string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Op: op, Err: err, Retriable: true}
}

// NewFatalUpstreamError creates a non-retriable upstream error
func NewFatalUpstreamError(service, op string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrEmptyQuery is returned when a search query is blank. Surfaced as a client error.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidPrice is returned when a price is missing, zero or negative
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrNotFound is returned when a product id is not tracked
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable is returned when an external service cannot be used at all
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedReply is returned when the language model reply is not the expected JSON
	ErrMalformedReply = errors.New("malformed model reply")
)
