package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeHelpers(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", NewError(CodeForbidden, "secret_santa.start", "already started", cause))

	if !IsCode(err, CodeForbidden) {
		t.Fatalf("IsCode: want=true got=false")
	}
	if got := CodeOf(err); got != CodeForbidden {
		t.Fatalf("CodeOf: want=%s got=%s", CodeForbidden, got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost through Unwrap")
	}
	if IsNotFound(err) {
		t.Fatalf("IsNotFound: want=false got=true")
	}
	if got := CodeOf(cause); got != "" {
		t.Fatalf("CodeOf plain error: want=\"\" got=%s", got)
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}

func TestErrorString(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{&Error{Code: CodeConflict, Op: "create", Message: "exists"}, "create: exists (conflict)"},
		{&Error{Code: CodeConflict, Op: "create"}, "create (conflict)"},
		{&Error{Code: CodeConflict, Message: "exists"}, "exists (conflict)"},
		{&Error{Code: CodeConflict}, "conflict"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("want=%q got=%q", tc.want, got)
		}
	}
}
