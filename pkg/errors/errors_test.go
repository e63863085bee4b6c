package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(KindInvalidDigestFormat, "decode", "want 64 hex characters"),
			want: "invalid_digest_format: decode: want 64 hex characters",
		},
		{
			name: "with cause",
			err:  Wrap(fmt.Errorf("boom"), KindDeviceDispatch, "enqueue", "work-item failed"),
			want: "device_dispatch: enqueue: work-item failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindKernelBuild, "build", "ignored"))
}

func TestUnwrap(t *testing.T) {
	err := Wrap(context.Canceled, KindCanceled, "crack", "stopped")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIsKind(t *testing.T) {
	inner := New(KindCandidateTooLong, "hash", "56 bytes")
	outer := Wrap(inner, KindDeviceDispatch, "dispatch", "batch rejected")
	wrapped := fmt.Errorf("crack: %w", outer)

	assert.True(t, IsKind(wrapped, KindDeviceDispatch))
	assert.True(t, IsKind(wrapped, KindCandidateTooLong))
	assert.False(t, IsKind(wrapped, KindKernelBuild))
	assert.False(t, IsKind(fmt.Errorf("plain"), KindKernelBuild))
	assert.False(t, IsKind(nil, KindKernelBuild))

	assert.Equal(t, KindDeviceDispatch, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestWithContext(t *testing.T) {
	err := New(KindCandidateTooLong, "hash", "too long").WithContext("index", 3)
	ctx := GetContext(fmt.Errorf("outer: %w", err))
	require.NotNil(t, ctx)
	assert.Equal(t, 3, ctx["index"])
	assert.Nil(t, GetContext(errors.New("plain")))
}
