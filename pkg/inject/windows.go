//go:build windows
// +build windows

package inject

import (
	"context"
	"log/slog"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/surxe/wrfexporter/pkg/errors"
)

const (
	processAccess = windows.PROCESS_CREATE_THREAD |
		windows.PROCESS_QUERY_INFORMATION |
		windows.PROCESS_VM_OPERATION |
		windows.PROCESS_VM_WRITE |
		windows.PROCESS_VM_READ

	remoteThreadWait = 30 * time.Second
)

var (
	kernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx  = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx   = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThd = kernel32.NewProc("CreateRemoteThread")
)

// WindowsInjector injects via CreateRemoteThread on LoadLibraryW.
type WindowsInjector struct{}

// New creates the platform injector.
func New() Injector {
	return &WindowsInjector{}
}

func (i *WindowsInjector) Inject(ctx context.Context, pid int, dllPath string) error {
	if _, err := os.Stat(dllPath); err != nil {
		return errors.New(errors.InjectionError, "payload not found at %s", dllPath)
	}
	abs, err := windows.UTF16FromString(dllPath)
	if err != nil {
		return errors.WrapKind(err, errors.InjectionError, "failed to encode dll path")
	}

	handle, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return errors.WrapKind(err, errors.InjectionError, "failed to open target process")
	}
	defer windows.CloseHandle(handle)

	// The remote thread's entry point is LoadLibraryW; its argument is the
	// dll path written into the target's address space.
	size := uintptr(len(abs) * 2)
	addr, _, allocErr := procVirtualAllocEx.Call(
		uintptr(handle), 0, size,
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if addr == 0 {
		return errors.WrapKind(allocErr, errors.InjectionError, "failed to allocate remote memory")
	}
	defer procVirtualFreeEx.Call(uintptr(handle), addr, 0, windows.MEM_RELEASE)

	var written uintptr
	if err := windows.WriteProcessMemory(handle, addr,
		(*byte)(unsafe.Pointer(&abs[0])), size, &written); err != nil {
		return errors.WrapKind(err, errors.InjectionError, "failed to write dll path")
	}

	loadLibrary := kernel32.NewProc("LoadLibraryW")
	if err := loadLibrary.Find(); err != nil {
		return errors.WrapKind(err, errors.InjectionError, "LoadLibraryW not found")
	}

	thread, _, threadErr := procCreateRemoteThd.Call(
		uintptr(handle), 0, 0, loadLibrary.Addr(), addr, 0, 0)
	if thread == 0 {
		return errors.WrapKind(threadErr, errors.InjectionError, "failed to create remote thread")
	}
	threadHandle := windows.Handle(thread)
	defer windows.CloseHandle(threadHandle)

	slog.Info("injection_thread_created", "pid", pid, "dll", dllPath)

	event, err := windows.WaitForSingleObject(threadHandle, uint32(remoteThreadWait.Milliseconds()))
	if err != nil {
		return errors.WrapKind(err, errors.InjectionError, "failed waiting on remote thread")
	}
	if event != windows.WAIT_OBJECT_0 {
		return errors.New(errors.InjectionError, "remote thread did not finish (wait=%d)", event)
	}

	// LoadLibraryW returns the module handle; zero means the load failed.
	var exitCode uint32
	if err := windows.GetExitCodeThread(threadHandle, &exitCode); err != nil {
		return errors.WrapKind(err, errors.InjectionError, "failed to read remote thread result")
	}
	if exitCode == 0 {
		return errors.New(errors.InjectionError, "LoadLibraryW failed in target process")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	slog.Info("injection_complete", "pid", pid)
	return nil
}
