//go:build !manifold

// Package manifold implements kernel.Kernel on the Manifold C library. This
// build has no manifold tag, so New always fails.
package manifold

import "github.com/chazu/scenecore/pkg/kernel"

// Kernel is never constructed in this build.
type Kernel struct{ kernel.Kernel }

// Option configures a Kernel.
type Option func(*Kernel)

// WithSegments is accepted and ignored.
func WithSegments(int) Option { return func(*Kernel) {} }

// New returns ErrUnavailable.
func New(...Option) (*Kernel, error) {
	return nil, ErrUnavailable
}
