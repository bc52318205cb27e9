//go:build !windows
// +build !windows

package inject

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/surxe/wrfexporter/pkg/errors"
)

func TestStubInjectorRefuses(t *testing.T) {
	err := New().Inject(context.Background(), 1234, "/tmp/payload.dll")
	if err == nil {
		t.Fatal("stub injector succeeded")
	}
	if !stderrors.Is(err, errors.InjectionError) {
		t.Errorf("error kind = %v, want injection_error", errors.KindOf(err))
	}
}
