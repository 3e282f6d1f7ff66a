package errors

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorString(t *testing.T) {
	err := &Error{
		Op:   "registry.Observe",
		Kind: KindConfiguration,
		Err:  &ConfigurationError{Field: "threshold", Value: 2.0, Reason: "must be within [0, 1]"},
	}
	got := err.Error()
	want := "registry.Observe [configuration]: invalid threshold 2: must be within [0, 1]"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindCardinality, "cardinality"},
		{KindTarget, "target"},
		{KindConfiguration, "configuration"},
		{KindEntryShape, "entry-shape"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"plain", fmt.Errorf("boom"), KindUnknown},
		{"cardinality", &ChildCardinalityError{Widget: "Observer", Count: 2}, KindCardinality},
		{"target", &TargetResolutionError{Reason: "no render object"}, KindTarget},
		{"configuration", &ConfigurationError{Field: "rootMargin"}, KindConfiguration},
		{"entry shape", &EntryShapeError{}, KindEntryShape},
		{"panic", &PanicError{Value: "x"}, KindPanic},
		{"wrapped", fmt.Errorf("observe: %w", &ConfigurationError{Field: "threshold"}), KindConfiguration},
		{"reported", &Error{Op: "x", Kind: KindTarget, Err: fmt.Errorf("y")}, KindTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap("op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
	inner := &EntryShapeError{Target: "node"}
	wrapped := Wrap("intersection.HandleChange", inner)
	if wrapped.Kind != KindEntryShape {
		t.Errorf("Kind = %v, want %v", wrapped.Kind, KindEntryShape)
	}
	var shape *EntryShapeError
	if !As(wrapped, &shape) || shape != inner {
		t.Error("wrapped error should unwrap to the EntryShapeError")
	}
}

func TestChildCardinalityErrorString(t *testing.T) {
	err := &ChildCardinalityError{Widget: "intersection.Observer", Count: 0}
	want := "intersection.Observer expects exactly one child, got 0"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTargetResolutionErrorString(t *testing.T) {
	err := &TargetResolutionError{Widget: "widgets.Builder", Reason: "child built nothing"}
	if got := err.Error(); !strings.Contains(got, "widgets.Builder") {
		t.Errorf("Error() = %q, should mention widget", got)
	}
	bare := &TargetResolutionError{Reason: "nil target"}
	if got := bare.Error(); got != "cannot resolve observation target: nil target" {
		t.Errorf("Error() = %q", got)
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test panic", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
	err.Op = "registry.dispatch"
	if got, want := err.Error(), "panic in registry.dispatch: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *Error
	handler := &testHandler{
		onError: func(err *Error) {
			captured = err
		},
	}
	SetHandler(handler)
	defer SetHandler(nil)

	Report(&Error{Op: "test.op", Kind: KindTarget, Err: &TargetResolutionError{Reason: "x"}})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			captured = err
		},
	}
	SetHandler(handler)
	defer SetHandler(nil)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
	if captured.StackTrace == "" {
		t.Error("expected StackTrace to be captured")
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := Handler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", Handler())
	}
}

func TestHandlerReturnsInstalled(t *testing.T) {
	custom := &LogHandler{Verbose: true}
	SetHandler(custom)
	defer SetHandler(nil)

	if got := Handler(); got != ErrorHandler(custom) {
		t.Errorf("Handler() = %v, want the installed handler", got)
	}
}

func TestLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &LogHandler{Logger: zap.New(core), Verbose: true}

	h.HandleError(&Error{
		Op:         "registry.Observe",
		Kind:       KindConfiguration,
		Err:        &ConfigurationError{Field: "rootMargin", Value: "10em", Reason: "bad unit"},
		StackTrace: "frame",
	})
	h.HandlePanic(&PanicError{Op: "registry.dispatch", Value: "boom"})
	h.HandleError(nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["op"] != "registry.Observe" {
		t.Errorf("op = %v, want registry.Observe", fields["op"])
	}
	if fields["kind"] != "configuration" {
		t.Errorf("kind = %v, want configuration", fields["kind"])
	}
	if fields["stack"] != "frame" {
		t.Errorf("verbose handler should log the stack, got %v", fields["stack"])
	}
	if entries[1].Message != "intersect panic" {
		t.Errorf("message = %q, want %q", entries[1].Message, "intersect panic")
	}
}

type testHandler struct {
	onError func(*Error)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *Error) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
