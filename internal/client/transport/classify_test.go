package transport

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_StatusMatrix(t *testing.T) {
	c := &Classifier{}

	tests := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{401, KindAuth, false},
		{403, KindPermission, false},
		{500, KindServer, true},
		{502, KindServer, true},
		{503, KindServer, true},
		{408, KindServer, true},
		{429, KindServer, true},
		{400, KindClient, false},
		{404, KindClient, false},
		{422, KindClient, false},
	}

	for _, tc := range tests {
		got := c.Classify(&APIError{Status: tc.status, Message: "x"})
		assert.Equal(t, tc.kind, got.Kind, "status %d", tc.status)
		assert.Equal(t, tc.retryable, got.Retryable, "status %d", tc.status)
		assert.NotEmpty(t, got.Message, "status %d", tc.status)
	}
}

func TestClassify_OfflineProbeWins(t *testing.T) {
	c := &Classifier{Online: func() bool { return false }}

	// Even an auth failure classifies as network while offline.
	got := c.Classify(&APIError{Status: 401})
	assert.Equal(t, KindNetwork, got.Kind)
	assert.True(t, got.Retryable)
}

func TestClassify_TransportErrors(t *testing.T) {
	c := &Classifier{}

	urlErr := &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection reset")}
	got := c.Classify(urlErr)
	assert.Equal(t, KindNetwork, got.Kind)
	assert.True(t, got.Retryable)

	got = c.Classify(context.DeadlineExceeded)
	assert.Equal(t, KindNetwork, got.Kind)
	assert.True(t, got.Retryable)
}

func TestClassify_UnknownDefault(t *testing.T) {
	c := &Classifier{}

	got := c.Classify(errors.New("mystery"))
	assert.Equal(t, KindUnknown, got.Kind)
	assert.True(t, got.Retryable)
}

func TestClassify_MessageNeverRawError(t *testing.T) {
	c := &Classifier{}

	raw := "pq: duplicate key value violates unique constraint"
	got := c.Classify(&APIError{Status: 500, Message: raw})
	assert.NotContains(t, got.Message, "pq:")
}
