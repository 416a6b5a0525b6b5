package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{
			name: "network",
			err:  Network("https://example.com/a.tar.gz", cause),
			kind: ErrNetwork,
			msg:  "fetch https://example.com/a.tar.gz: boom",
		},
		{
			name: "not_installed",
			err:  NotInstalled("v1.5.0"),
			kind: ErrNotInstalled,
			msg:  "version v1.5.0: not installed",
		},
		{
			name: "filesystem",
			err:  Filesystem("create directory", "/tmp/x", fs.ErrPermission),
			kind: ErrFilesystem,
			msg:  "create directory /tmp/x: permission denied",
		},
		{
			name: "config_without_subject",
			err:  Config("resolve root directory", cause),
			kind: ErrConfig,
			msg:  "resolve root directory: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %v, want %v", got, tt.kind)
			}
			if tt.err.Error() != tt.msg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.msg)
			}
		})
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := fmt.Errorf("install: %w", Filesystem("chmod", "/x", fs.ErrPermission))

	if !errors.Is(err, fs.ErrPermission) {
		t.Error("expected cause to be reachable through wrapping")
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected *Error in chain")
	}
	if appErr.Subject != "/x" {
		t.Errorf("Subject = %q, want /x", appErr.Subject)
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != nil {
		t.Errorf("KindOf() = %v, want nil", got)
	}
}
