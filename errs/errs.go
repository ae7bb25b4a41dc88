// Package errs defines the sentinel errors shared by all linreg packages.
//
// Call sites wrap these errors with detail using fmt.Errorf("...: %w", err),
// so callers should always compare with errors.Is.
package errs

import "errors"

// Caller misuse. Never retried.
var (
	// ErrInvalidArgument reports a mismatched feature-vector length, a non-positive
	// feature count, or a merge across accumulators of different width.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidBucketKey reports an empty bucket key.
	ErrInvalidBucketKey = errors.New("invalid bucket key")
)

// Estimation outcomes. Both mean "no usable model yet" to callers, but stay
// distinct for diagnostics.
var (
	// ErrInsufficientData reports that the accumulator holds no more observations
	// than features, so the model cannot be estimated.
	ErrInsufficientData = errors.New("insufficient data for model estimation")
	// ErrLinearlyDependentData reports that the normal-equation matrix is not
	// positive definite, e.g. collinear features.
	ErrLinearlyDependentData = errors.New("linearly dependent data")
	// ErrInvalidScore reports a residual score that is NaN or infinite.
	ErrInvalidScore = errors.New("score is not a finite number")
)

// State and transfer encoding.
var (
	ErrInvalidStateSize   = errors.New("invalid state size")
	ErrCorruptedState     = errors.New("corrupted state")
	ErrInvalidHeaderSize  = errors.New("invalid header size")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidIndexEntry  = errors.New("invalid index entry")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrInvalidCompression = errors.New("invalid compression type")
)

// Storage.
var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)
