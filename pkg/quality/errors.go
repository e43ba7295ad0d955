package quality

import "errors"

// ValidationError reports a reading whose fields are outside their declared
// ranges. Batch evaluation contains these by skipping the offending reading;
// single-reading operations return them to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid reading: " + e.Reason
}

// ConfigError reports an unusable model configuration (missing keys,
// non-positive total weight, out-of-range cutoff). Never contained: any
// operation that hits one fails immediately.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid model config: " + e.Reason
}

// IsValidation checks whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
