//go:build !windows
// +build !windows

package inject

import (
	"context"
	"runtime"

	"github.com/surxe/wrfexporter/pkg/errors"
)

// StubInjector refuses to inject on non-Windows systems.
type StubInjector struct{}

// New creates a stub injector on non-Windows systems.
func New() Injector {
	return &StubInjector{}
}

func (i *StubInjector) Inject(ctx context.Context, pid int, dllPath string) error {
	return errors.New(errors.InjectionError, "dll injection not supported on %s", runtime.GOOS)
}
