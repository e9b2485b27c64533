// ABOUTME: Failure kinds surfaced by the aggregation service
// ABOUTME: Converts source panics into ordinary errors at the call site
package activity

import "errors"

var (
	// ErrNoData means the source answered without data where data was
	// expected. Zero matching rows is an empty page, not this error.
	ErrNoData = errors.New("no data returned from query")

	// ErrUnexpected replaces panics whose value is not an error.
	ErrUnexpected = errors.New("unexpected error occurred")

	ErrEmptyUpdate = errors.New("update has no fields")
	ErrNoTargets   = errors.New("no principals to update")
)

// recoverError turns a recovered panic value into an error.
func recoverError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return ErrUnexpected
}
