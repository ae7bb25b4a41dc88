// Package options implements the generic functional options shared by the
// estimator and the shard encoder.
//
// Public packages expose a named alias so callers never import this package:
//
//	type EstimatorOption = options.Option[*EstimatorConfig]
//
//	func WithStatistics(enabled bool) EstimatorOption {
//	    return options.NoError(func(c *EstimatorConfig) { c.Statistics = enabled })
//	}
package options

// Option configures a target of type T, usually a pointer to a config struct.
type Option[T any] interface {
	apply(T) error
}

// Func is a functional option backed by a plain function.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an option from a function that may reject its input.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an option from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies opts to target in order and stops at the first error.
//
// Nil options are skipped, so callers can pass conditionally built option lists.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
