package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesOrderRegardlessOfCompletionOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", nil)
	jobs := make([]Job, 5)
	for i := range jobs {
		jobs[i] = Job{Index: i, URL: fmt.Sprintf("%s/%d", srv.URL, i)}
	}

	results, err := Run(context.Background(), c, Options{Concurrency: 3}, jobs)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, fmt.Sprintf("/%d", i), string(r.Data))
	}
}

func TestRunStopsAfterMaxErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", nil)
	jobs := []Job{
		{Index: 0, URL: srv.URL}, {Index: 1, URL: srv.URL}, {Index: 2, URL: srv.URL},
	}

	_, err := Run(context.Background(), c, Options{Concurrency: 1, Retry: RetryPolicy{MaxAttempts: 1}, MaxErrors: 1}, jobs)
	assert.Error(t, err)
}
