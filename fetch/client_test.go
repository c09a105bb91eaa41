package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

func TestFetchManifestSetsAcceptHeader(t *testing.T) {
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("<MPD/>"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "dashmpd-test", nil)
	data, err := c.FetchManifest(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<MPD/>", string(data))
	assert.Contains(t, gotAccept, "application/dash+xml")
}

func TestFetchRangeSendsRangeHeader(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("partial"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", nil)
	data, err := c.FetchRange(context.Background(), srv.URL, "0-99")
	require.NoError(t, err)
	assert.Equal(t, "bytes=0-99", gotRange)
	assert.Equal(t, "partial", string(data))
}

func TestFetchSendsBasicAuthWhenConfigured(t *testing.T) {
	var gotUser, gotPass string
	var gotOK bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", nil)
	c.AuthUser, c.AuthPass = "alice", "secret"
	_, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, gotOK)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestFetchReturnsHTTPErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchWrapsFatal4xxAsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var permErr *backoff.PermanentError
	assert.True(t, errors.As(err, &permErr), "404 should be wrapped as a permanent error")

	var httpErr *dmerrors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestFetchDoesNotWrap429AsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var permErr *backoff.PermanentError
	assert.False(t, errors.As(err, &permErr), "429 must remain retryable")

	var httpErr *dmerrors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 2*time.Second, httpErr.RetryAfter)
}
