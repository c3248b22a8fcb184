package browse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatic(t *testing.T) *StaticSession {
	t.Helper()
	s, err := NewStaticSession(Options{
		RetryAttempts: 3,
		RetryBase:     10 * time.Millisecond,
	})
	require.NoError(t, err)
	return s
}

func TestStaticSessionFetchAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="travelsName">VRL Travels</div></body></html>`))
	}))
	defer srv.Close()

	s := newStatic(t)
	require.NoError(t, s.Navigate(context.Background(), srv.URL))

	doc, err := s.Document(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "VRL Travels", doc.Find(`div[class*="travelsName"]`).Text())

	html, err := s.HTML(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, "travelsName")

	rounds, err := s.ScrollToBottom(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, rounds)

	shot, err := s.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, shot)
}

func TestStaticSessionRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer srv.Close()

	s := newStatic(t)
	require.NoError(t, s.Navigate(context.Background(), srv.URL))
	assert.Equal(t, int64(2), calls.Load())
}

func TestStaticSessionDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newStatic(t)
	err := s.Navigate(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int64(1), calls.Load())
}

func TestStaticSessionNoPageLoaded(t *testing.T) {
	s := newStatic(t)
	_, err := s.Document(context.Background())
	require.Error(t, err)
	_, err = s.HTML(context.Background())
	require.Error(t, err)
}
