package types

import "errors"

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// MsgReviewsCountDecreased is the fixed message of the review-count guard.
const MsgReviewsCountDecreased = "reviewsCount cannot be decreased"

// ValidationError reports a rejected write. Field names the offending
// field using its API name (e.g. "reviewsCount"). The message is meant for
// the end user and is returned verbatim by Error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AsValidationError returns the *ValidationError in err's chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
