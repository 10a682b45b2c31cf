package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Open())

	b.RecordFailure()
	assert.True(t, b.Open())
}

func TestBreakerSuccessResets(t *testing.T) {
	b := NewBreaker(2, time.Minute, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.Open())

	b.RecordSuccess()
	assert.False(t, b.Open())

	b.RecordFailure()
	assert.False(t, b.Open())
}

func TestBreakerClosesAfterOpenDuration(t *testing.T) {
	b := NewBreaker(1, time.Minute, 10*time.Millisecond)

	b.RecordFailure()
	require.True(t, b.Open())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, b.Open())
}

func TestBreakerNilSafe(t *testing.T) {
	var b *Breaker
	assert.NotPanics(t, func() {
		b.RecordFailure()
		b.RecordSuccess()
	})
	assert.False(t, b.Open())
}

func TestClientFailsFastWhenOpen(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	client.SetBreaker(NewBreaker(2, time.Minute, time.Minute))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.GetEntityByGUID(ctx, "g-1", false, false)
		require.Error(t, err)
	}
	require.Equal(t, 2, hits)

	_, err := client.GetEntityByGUID(ctx, "g-1", false, false)
	require.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Equal(t, 2, hits, "open breaker must not reach the server")
}

func TestClientDisabledBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	client.SetBreaker(nil)

	for i := 0; i < 10; i++ {
		_, err := client.GetEntityByGUID(context.Background(), "g-1", false, false)
		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
	}
}
