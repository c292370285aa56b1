package elq

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is returned for malformed or missing run parameters. It is fatal.
	ErrConfiguration = errors.New("configuration error")
	// ErrDataIntegrity is returned when evaluation data breaks an assumption of the evaluator,
	// such as the same interpretation set appearing twice for a query. It is fatal.
	ErrDataIntegrity = errors.New("data integrity error")
	// ErrLookupMiss is returned by stores when an entity or surface form does not exist.
	// Callers treat it as zero candidates.
	ErrLookupMiss = errors.New("lookup miss")
)

// ConfigurationError wraps ErrConfiguration with a message.
func ConfigurationError(format string, args ...interface{}) error {
	return errors.Wrap(ErrConfiguration, fmt.Sprintf(format, args...))
}

// DataIntegrityError wraps ErrDataIntegrity with a message.
func DataIntegrityError(format string, args ...interface{}) error {
	return errors.Wrap(ErrDataIntegrity, fmt.Sprintf(format, args...))
}

// IsLookupMiss reports whether err is (or wraps) ErrLookupMiss.
func IsLookupMiss(err error) bool {
	return err != nil && errors.Cause(err) == ErrLookupMiss
}
