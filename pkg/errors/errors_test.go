package errors_test

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	kverrors "github.com/ignitekv/ignite/pkg/errors"
)

func TestStorageErrorPathReturnsPathNotFileName(t *testing.T) {
	err := kverrors.NewStorageError(nil, kverrors.ErrorCodeIO, "boom").
		WithFileName("000.log").
		WithPath("/data/segments/000.log")

	require.Equal(t, "/data/segments/000.log", err.Path())
	require.Equal(t, "000.log", err.FileName())
}

func TestIsRetryableByErrorCode(t *testing.T) {
	require.True(t, kverrors.IsRetryable(
		kverrors.NewStorageError(nil, kverrors.ErrorCodeIO, "transient io failure")))
	require.True(t, kverrors.IsRetryable(
		kverrors.NewStorageError(nil, kverrors.ErrorCodeDiskFull, "disk full")))

	require.False(t, kverrors.IsRetryable(
		kverrors.NewStorageError(nil, kverrors.ErrorCodeSegmentCorrupted, "bad crc")))
	require.False(t, kverrors.IsRetryable(kverrors.NewKeyNotFoundError("k1")))
	require.False(t, kverrors.IsRetryable(stdErrors.New("plain error")))
}

func TestAsRequestErrorRoundTripsRetryable(t *testing.T) {
	err := kverrors.NewRequestError(kverrors.ErrInvalidRequest, kverrors.ErrorCodeInvalidRequest, "nope").
		WithRetryable(true)

	re, ok := kverrors.AsRequestError(err)
	require.True(t, ok)
	require.True(t, re.Retryable())

	_, ok = kverrors.AsRequestError(stdErrors.New("not a request error"))
	require.False(t, ok)
}

func TestGetErrorCodeAndDetailsAcrossTypes(t *testing.T) {
	ve := kverrors.NewRequiredFieldError("key")
	require.Equal(t, kverrors.ErrorCodeInvalidInput, kverrors.GetErrorCode(ve))

	se := kverrors.NewStorageError(nil, kverrors.ErrorCodeDiskFull, "full").
		WithDetail("path", "/data")
	require.Equal(t, kverrors.ErrorCodeDiskFull, kverrors.GetErrorCode(se))
	require.Equal(t, "/data", kverrors.GetErrorDetails(se)["path"])

	require.Equal(t, kverrors.ErrorCodeInternal, kverrors.GetErrorCode(stdErrors.New("plain")))
	require.Empty(t, kverrors.GetErrorDetails(stdErrors.New("plain")))
}
