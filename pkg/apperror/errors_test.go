package apperror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"no_field", New(CodeConfigInvalid, "bad segment size"), "[CONFIG_INVALID] bad segment size"},
		{"with_field", NewWithField(CodeOutOfDomain, "must be in (0,1)", "theta"), "[PARAMETER_OUT_OF_DOMAIN] must be in (0,1) (field: theta)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want codes.Code
	}{
		{CodeUnknownOperator, codes.InvalidArgument},
		{CodeInstanceMalformed, codes.FailedPrecondition},
		{CodeInfeasibleInitial, codes.Aborted},
		{CodeInvariantViolation, codes.Internal},
		{CodeNotFound, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "boom")
			st := status.Convert(err.GRPCStatus().Err())
			assert.Equal(t, tt.want, st.Code())
		})
	}
}

func TestIsAndCode(t *testing.T) {
	err := Wrap(errors.New("root cause"), CodeInvariantViolation, "route load mismatch")
	assert.True(t, Is(err, CodeInvariantViolation))
	assert.False(t, Is(err, CodeConfigInvalid))
	assert.Equal(t, CodeInvariantViolation, Code(err))
	assert.Equal(t, CodeInternal, Code(errors.New("plain")))
	assert.ErrorContains(t, err.Unwrap(), "root cause")
}

func TestCriticalSeverity(t *testing.T) {
	err := NewCritical(CodeInvariantViolation, "dangling linked-list pointer")
	assert.True(t, IsCritical(err))
	assert.Equal(t, SeverityCritical, err.Severity)
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	assert.True(t, v.IsValid())

	v.AddError(CodeArcMismatch, "distance matrix is not square")
	v.Add(New(CodeMissingColumn, "demand").WithField("demand"))

	assert.False(t, v.IsValid())
	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors, 2)
	assert.Contains(t, v.Error(), "distance matrix is not square")
	assert.Contains(t, v.Error(), "and 1 more error(s)")
}

func TestToGRPC(t *testing.T) {
	assert.Nil(t, ToGRPC(nil))

	appErr := New(CodeInfeasibleInitial, "capacities too tight")
	grpcErr := ToGRPC(appErr)
	st := status.Convert(grpcErr)
	assert.Equal(t, codes.Aborted, st.Code())

	plain := errors.New("unstructured failure")
	wrapped := ToGRPC(plain)
	st2 := status.Convert(wrapped)
	assert.Equal(t, codes.Internal, st2.Code())
}
