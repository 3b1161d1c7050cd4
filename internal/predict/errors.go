package predict

import "errors"

// Failure kinds. Predict wraps one of these around the underlying cause;
// GetPredictedLabel turns all of them into an absent label.
var (
	ErrInvalidShape      = errors.New("invalid landmark set")
	ErrNetwork           = errors.New("classifier request failed")
	ErrStatus            = errors.New("classifier returned non-success status")
	ErrUnparsable        = errors.New("classifier response could not be parsed")
	ErrUnrecognizedLabel = errors.New("classifier returned an unrecognized label")
)

// Kind returns a short stable name for the failure kind of err, or an empty
// string when err is nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidShape):
		return "invalid_shape"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrUnparsable):
		return "unparsable"
	case errors.Is(err, ErrUnrecognizedLabel):
		return "unrecognized_label"
	default:
		return "unknown"
	}
}
