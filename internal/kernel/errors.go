package kernel

import "fmt"

// wrapf wraps a sentinel error with a formatted detail message, the
// convention used throughout this package for every fallible operation.
func wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
}
