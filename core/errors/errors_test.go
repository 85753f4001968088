package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want string
	}{
		{KindConfiguration, "configuration"},
		{KindNotFound, "not_found"},
		{KindStoreUnavailable, "store_unavailable"},
		{KindBinding, "variable_binding"},
		{KindFormat, "unsupported_format"},
		{KindExternal, "external"},
		{ErrorKind(99), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind %d: got %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestPipelineErrorMessage(t *testing.T) {
	err := New(KindNotFound, "profile missing")
	if err.Error() != "[not_found] profile missing" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	wrapped := Wrap(KindStoreUnavailable, "open db", errors.New("no such file"))
	want := "[store_unavailable] open db: no such file"
	if wrapped.Error() != want {
		t.Errorf("got %q, want %q", wrapped.Error(), want)
	}
}

func TestWrapPreservesKind(t *testing.T) {
	inner := New(KindBinding, "chunk.language unresolved")
	outer := Wrap(KindConfiguration, "render sample", inner)

	if GetKind(outer) != KindBinding {
		t.Errorf("wrapping must preserve the original kind, got %v", GetKind(outer))
	}
	if !errors.Is(outer, ErrVariableBinding) {
		t.Error("wrapped error should match ErrVariableBinding by kind")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindExternal, "upload", nil) != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestErrorsIsByKind(t *testing.T) {
	err := Newf(KindNotFound, "template type %q not registered", "essay")
	if !errors.Is(err, ErrUnknownTemplateType) {
		t.Error("kind-based Is should match")
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Error("different kinds must not match")
	}
}

func TestBehaviors(t *testing.T) {
	if !IsSkippable(ErrVariableBinding) {
		t.Error("binding errors follow skip-and-count")
	}
	if IsSkippable(ErrUnsupportedFormat) {
		t.Error("format errors are fatal, not skippable")
	}
	if !IsRetryable(ErrBridgeFailure) {
		t.Error("bridge failures are retryable")
	}
	if !GetBehavior(ErrStoreUnavailable).HaltsRun {
		t.Error("store unavailability halts the run")
	}
}

func TestGetKindUnclassified(t *testing.T) {
	err := fmt.Errorf("plain error")
	if GetKind(err) != KindConfiguration {
		t.Errorf("unclassified errors default to configuration, got %v", GetKind(err))
	}
}

func TestWithContext(t *testing.T) {
	err := New(KindBinding, "unresolved variable").
		WithContext("variable", "chunk.language").
		WithContext("template_type", "code_review")

	if err.Context["variable"] != "chunk.language" {
		t.Error("context not recorded")
	}
	if err.Context["template_type"] != "code_review" {
		t.Error("context not recorded")
	}
}
