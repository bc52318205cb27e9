package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("wrapping nil should return nil")
	}

	base := stderrors.New("boom")
	wrapped := Wrap(base, "ctx")
	if wrapped.Error() != "ctx: boom" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("wrapped error should match base")
	}
}

func TestKindMatching(t *testing.T) {
	err := New(InjectionTimeout, "no artifact after %s", "10m")

	if !stderrors.Is(err, InjectionTimeout) {
		t.Error("error should match its own kind")
	}
	if stderrors.Is(err, InjectionError) {
		t.Error("error should not match a different kind")
	}

	// Kind must survive further wrapping.
	outer := fmt.Errorf("mapping stage: %w", err)
	if !stderrors.Is(outer, InjectionTimeout) {
		t.Error("kind should match through wrapping")
	}
	if KindOf(outer) != InjectionTimeout {
		t.Errorf("KindOf = %q, want %q", KindOf(outer), InjectionTimeout)
	}
}

func TestWithStage(t *testing.T) {
	err := WithStage(New(LaunchError, "exe missing"), "mapping")

	var e *Error
	if !stderrors.As(err, &e) {
		t.Fatal("expected *Error")
	}
	if e.Stage != "mapping" {
		t.Errorf("stage = %q, want mapping", e.Stage)
	}

	// A stage already set must not be overwritten.
	again := WithStage(err, "export")
	if !stderrors.As(again, &e) || e.Stage != "mapping" {
		t.Error("existing stage should be preserved")
	}

	// Plain errors still get the stage in the message.
	plain := WithStage(stderrors.New("boom"), "download")
	if plain.Error() != "download: boom" {
		t.Errorf("unexpected message: %s", plain.Error())
	}
	if KindOf(plain) != "" {
		t.Error("plain error should have no kind")
	}
}

func TestWrapKindPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := WrapKind(cause, ToolInvocationError, "depotdownloader run")

	if !stderrors.Is(err, ToolInvocationError) {
		t.Error("kind mismatch")
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause should be reachable")
	}
}
