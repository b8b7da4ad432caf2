//go:build !manifold

package manifold

import (
	"errors"
	"testing"
)

func TestNewUnavailable(t *testing.T) {
	k, err := New(WithSegments(16))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("New() error = %v, want ErrUnavailable", err)
	}
	if k != nil {
		t.Errorf("New() = %v, want nil", k)
	}
}
