// Package inject loads a DLL into a running process.
package inject

import "context"

// Injector loads a library into another process's address space.
type Injector interface {
	// Inject loads the DLL at dllPath into the process identified by pid.
	// It returns once the target has finished loading the library.
	Inject(ctx context.Context, pid int, dllPath string) error
}
