package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	payload := encodePayload(sampleSchedule)
	srv := fakeUpstream(t, http.StatusOK, payload)

	body, err := NewFetcher(srv.URL, srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestFetchStatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := fakeUpstream(t, status, []byte(`{"error": "down"}`))

			body, err := NewFetcher(srv.URL, srv.Client()).Fetch(context.Background())
			assert.ErrorIs(t, err, ErrUpstream)
			assert.Nil(t, body)
		})
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, nil)
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(url, nil).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := NewFetcher("://nowhere", nil).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchCanceled(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, encodePayload(sampleSchedule))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(srv.URL, srv.Client()).Fetch(ctx)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.Canceled)
}
