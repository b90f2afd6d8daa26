package errors_test

import (
	stderrors "errors"
	"testing"

	"dotfiles-installer/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "tool_not_found_error",
			code:    errors.ErrToolNotFound,
			message: "curl executable not found",
			wantStr: "[TOOL_NOT_FOUND] curl executable not found",
		},
		{
			name:    "invalid_input_error",
			code:    errors.ErrInvalidInput,
			message: "invalid extension name",
			wantStr: "[INVALID_INPUT] invalid extension name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := stderrors.New("permission denied")
	err := errors.Wrap(base, errors.ErrFileBackup, "backing up ~/.gitconfig")

	if got := err.Error(); got != "[FILE_BACKUP] backing up ~/.gitconfig: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if !stderrors.Is(err, base) {
		t.Error("wrapped error should match with errors.Is")
	}
	if stderrors.Unwrap(err) != base {
		t.Error("Unwrap() should return the wrapped error")
	}
}

func TestWrapNil(t *testing.T) {
	if errors.Wrap(nil, errors.ErrFileBackup, "no-op") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if errors.Wrapf(nil, errors.ErrFileBackup, "no-op %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestIsErrorCode(t *testing.T) {
	err := errors.Newf(errors.ErrStageAborted, "stage %s failed", "Write .gitconfig")
	wrapped := errors.Wrap(err, errors.ErrInternal, "outer")

	if !errors.IsErrorCode(err, errors.ErrStageAborted) {
		t.Error("IsErrorCode should match the error's own code")
	}
	if errors.IsErrorCode(err, errors.ErrStageFailed) {
		t.Error("IsErrorCode should not match a different code")
	}
	// The outermost structured error wins.
	if !errors.IsErrorCode(wrapped, errors.ErrInternal) {
		t.Error("IsErrorCode should match the outer code")
	}
	if errors.IsErrorCode(stderrors.New("plain"), errors.ErrInternal) {
		t.Error("IsErrorCode should be false for plain errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := errors.GetErrorCode(errors.New(errors.ErrConfigInvalid, "bad")); got != errors.ErrConfigInvalid {
		t.Errorf("GetErrorCode() = %v, want %v", got, errors.ErrConfigInvalid)
	}
	if got := errors.GetErrorCode(stderrors.New("plain")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode() = %v, want %v", got, errors.ErrUnknown)
	}
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrFileWrite, "write failed").WithDetail("path", "/home/user/.gitconfig")
	if err.Details["path"] != "/home/user/.gitconfig" {
		t.Errorf("Details[path] = %v", err.Details["path"])
	}
}
