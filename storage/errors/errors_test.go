package errors

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := New(ErrCorruptedFile).
		Op("read_layer_header").
		Path("field.rf3").
		Offset(128).
		Severity(SeverityFatal).
		Context("layer", "doserate").
		Wrap(cause).
		Build()

	fe, ok := err.(*FieldError)
	if !ok {
		t.Fatalf("Build returned %T", err)
	}
	if fe.Code != ErrCorruptedFile || fe.Op != "read_layer_header" || fe.Offset != 128 {
		t.Errorf("unexpected error fields: %+v", fe)
	}
	if fe.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	msg := err.Error()
	for _, want := range []string{"[CorruptedFile:read_layer_header]", "path=field.rf3 offset=128", "layer:doserate", "cause=disk on fire"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrUnexpectedEOF).Op("read").Build()
	outer := New(ErrCorruptedFile).Op("load").Wrap(inner).Build()
	wrapped := fmt.Errorf("load field: %w", outer)

	if !Is(wrapped, ErrCorruptedFile) {
		t.Error("outer code not found")
	}
	if !Is(wrapped, ErrUnexpectedEOF) {
		t.Error("inner code not found")
	}
	if Is(wrapped, ErrIO) {
		t.Error("unexpected IO code")
	}
	if !IsAny(wrapped, ErrIO, ErrUnexpectedEOF) {
		t.Error("IsAny should match inner code")
	}
	if GetCode(wrapped) != ErrCorruptedFile {
		t.Errorf("GetCode = %v", GetCode(wrapped))
	}
	if Is(nil, ErrUnknown) || GetCode(fmt.Errorf("plain")) != ErrUnknown {
		t.Error("non-FieldError should not carry a code")
	}
}

func TestIO(t *testing.T) {
	if !Is(IO("read", "", io.EOF), ErrUnexpectedEOF) {
		t.Error("io.EOF should map to UnexpectedEOF")
	}
	if !Is(IO("read", "", io.ErrUnexpectedEOF), ErrUnexpectedEOF) {
		t.Error("io.ErrUnexpectedEOF should map to UnexpectedEOF")
	}
	if !Is(IO("write", "x", io.ErrClosedPipe), ErrIO) {
		t.Error("other errors should map to IO")
	}
}

func TestSeverity(t *testing.T) {
	if !IsFatal(FormatInvalidMagic("f", 1, 2)) {
		t.Error("invalid magic should be fatal")
	}
	if !IsFatal(UnknownType("classify_dtype", "dubble")) {
		t.Error("unknown type should be fatal")
	}
	if IsFatal(InvalidArg("op", "bad")) {
		t.Error("invalid argument should not be fatal")
	}
}

func TestErrorCodeString(t *testing.T) {
	if ErrOutOfBounds.String() != "OutOfBounds" {
		t.Errorf("String() = %q", ErrOutOfBounds.String())
	}
	if got := ErrorCode(999).String(); got != "ErrorCode(999)" {
		t.Errorf("String() = %q", got)
	}
}
