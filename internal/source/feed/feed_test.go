package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streaming_watcher/internal/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>Test Channel</title>
  <entry>
    <id>yt:video:video1</id>
    <yt:videoId>video1</yt:videoId>
    <yt:channelId>UC1</yt:channelId>
    <title>First Stream</title>
    <published>2024-04-01T10:00:00+00:00</published>
    <updated>2024-04-02T12:30:00+00:00</updated>
  </entry>
  <entry>
    <id>yt:video:video2</id>
    <yt:videoId>video2</yt:videoId>
    <yt:channelId>UC1</yt:channelId>
    <title>Second Stream</title>
    <published>2024-04-03T10:00:00+00:00</published>
    <updated>2024-04-03T10:00:00+00:00</updated>
  </entry>
</feed>`

func testSource(t *testing.T, baseURL string, maxAttempts int) *Source {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSource(config.FeedConfig{
		BaseURL:     baseURL,
		MaxAttempts: maxAttempts,
		RetryDelay:  time.Millisecond,
		Timeout:     5 * time.Second,
	}, logger)
}

func TestFetch_ParsesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UC1", r.URL.Query().Get("channel_id"))
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	feed, err := testSource(t, srv.URL, 3).Fetch(context.Background(), "UC1")

	require.NoError(t, err)
	assert.Equal(t, "Test Channel", feed.Title)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "video1", feed.Items[0].VideoID)
	assert.Equal(t, "First Stream", feed.Items[0].Title)
	assert.Equal(t, time.Date(2024, 4, 2, 12, 30, 0, 0, time.UTC), feed.Items[0].Updated.UTC())
	assert.Equal(t, "video2", feed.Items[1].VideoID)
}

func TestFetch_NotFoundMeansEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	feed, err := testSource(t, srv.URL, 3).Fetch(context.Background(), "UC1")

	require.NoError(t, err)
	assert.Empty(t, feed.Items)
}

func TestFetch_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	feed, err := testSource(t, srv.URL, 10).Fetch(context.Background(), "UC1")

	require.NoError(t, err)
	assert.Len(t, feed.Items, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testSource(t, srv.URL, 4).Fetch(context.Background(), "UC1")

	assert.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetch_InvalidXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not xml at all <"))
	}))
	defer srv.Close()

	_, err := testSource(t, srv.URL, 1).Fetch(context.Background(), "UC1")

	assert.ErrorContains(t, err, "parse atom feed")
}

func TestFetch_ContextCancelledDuringRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testSource(t, srv.URL, 10).Fetch(ctx, "UC1")

	assert.Error(t, err)
}
