package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Run("deadline exceeded is a timeout", func(t *testing.T) {
		err := Classify(context.DeadlineExceeded)
		assert.Equal(t, KindTimeout, err.Kind)
	})

	t.Run("net timeout is a timeout", func(t *testing.T) {
		err := Classify(fmt.Errorf("request failed: %w", timeoutErr{}))
		assert.Equal(t, KindTimeout, err.Kind)
	})

	t.Run("generic error is unknown", func(t *testing.T) {
		err := Classify(errors.New("connection refused"))
		assert.Equal(t, KindUnknown, err.Kind)
		assert.Equal(t, "connection refused", err.Message)
	})

	t.Run("existing ingest error passes through", func(t *testing.T) {
		original := &Error{Kind: KindHTTPStatus, Status: 422, Message: "unprocessable"}
		err := Classify(fmt.Errorf("wrapped: %w", original))
		assert.Same(t, original, err)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindEncodingFailed, KindOf(&Error{Kind: KindEncodingFailed}))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindTimeout, KindOf(fmt.Errorf("wrap: %w", &Error{Kind: KindTimeout})))
}

func TestErrorMessageFormat(t *testing.T) {
	err := &Error{Kind: KindHTTPStatus, Status: 500, Message: "internal error"}
	assert.Equal(t, "http_status (status 500): internal error", err.Error())

	err = &Error{Kind: KindEncodingFailed, Message: "empty file"}
	assert.Equal(t, "encoding_failed: empty file", err.Error())
}
