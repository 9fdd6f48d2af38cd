package sweep

import (
	"errors"
	"fmt"
)

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeEmptyDomain indicates a parameter domain with no values.
	ErrCodeEmptyDomain ConfigErrorCode = "EMPTY_DOMAIN"

	// ErrCodeDuplicateDomain indicates two domains with the same name in one design.
	ErrCodeDuplicateDomain ConfigErrorCode = "DUPLICATE_DOMAIN"

	// ErrCodeTagCollision indicates two combinations of one design mapping to the same tag.
	ErrCodeTagCollision ConfigErrorCode = "TAG_COLLISION"

	// ErrCodeRunIDCollision indicates two designs producing the same run ID.
	ErrCodeRunIDCollision ConfigErrorCode = "RUN_ID_COLLISION"

	// ErrCodeInvalidValue indicates a parameter value that cannot be represented.
	ErrCodeInvalidValue ConfigErrorCode = "INVALID_VALUE"

	// ErrCodeInvalidName indicates a malformed design or domain name.
	ErrCodeInvalidName ConfigErrorCode = "INVALID_NAME"

	// ErrCodeTooManyCombinations indicates a product above MaxCombinations.
	ErrCodeTooManyCombinations ConfigErrorCode = "TOO_MANY_COMBINATIONS"

	// ErrCodeInvalidDesign covers any other structural problem in a design.
	ErrCodeInvalidDesign ConfigErrorCode = "INVALID_DESIGN"
)

// ConfigurationError reports an invalid sweep configuration.
// It is always fatal and is raised before any engine invocation.
type ConfigurationError struct {
	Code ConfigErrorCode

	// Design is the top name of the offending design, if known.
	Design string

	// Domain is the offending parameter domain, if any.
	Domain string

	Message string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Design != "" && e.Domain != "":
		return fmt.Sprintf("%s: %s (design=%s, domain=%s)", e.Code, e.Message, e.Design, e.Domain)
	case e.Design != "":
		return fmt.Sprintf("%s: %s (design=%s)", e.Code, e.Message, e.Design)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func configErr(code ConfigErrorCode, design, domain, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Code:    code,
		Design:  design,
		Domain:  domain,
		Message: fmt.Sprintf(format, args...),
	}
}
