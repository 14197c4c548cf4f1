package common

import (
	"github.com/pkg/errors"
)

// Error taxonomy shared by every analysis package. Call sites wrap these with
// the offending values, so callers should classify with errors.Is.
var (
	// ErrInvalidConfig reports a construction parameter outside its valid range
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrOutOfBounds reports an index, frame, channel, band or hop beyond the current extent
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrNonFinite reports an attempt to store NaN or Inf
	ErrNonFinite = errors.New("non-finite value")

	// ErrPrecondition reports an operation applied to data in the wrong state,
	// e.g. filtering multi-channel audio
	ErrPrecondition = errors.New("precondition violated")
)
