package registry

import "errors"

// NonRetryableError marks a row the publisher should dead-letter instead of
// retrying.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// IsNonRetryable reports whether err, or anything it wraps, is a
// NonRetryableError.
func IsNonRetryable(err error) bool {
	var target NonRetryableError
	return errors.As(err, &target)
}

func permanent(msg string, err error) NonRetryableError {
	if err == nil {
		return NonRetryableError{Err: errors.New(msg)}
	}
	return NonRetryableError{Err: errors.Join(errors.New(msg), err)}
}
