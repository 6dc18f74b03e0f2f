package trigger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFire(t *testing.T) {
	var gotUA, gotKey, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA, gotKey, gotMethod = r.UserAgent(), r.Header.Get("X-API-Key"), r.Method
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, "s3cret", time.Second).Fire(context.Background()))
	require.Equal(t, UserAgent, gotUA)
	require.Equal(t, "s3cret", gotKey)
	require.Equal(t, http.MethodPost, gotMethod)
}

func TestFireErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "already running", http.StatusConflict)
	}))
	defer srv.Close()

	err := New(srv.URL, "", time.Second).Fire(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")

	require.ErrorIs(t, New("", "", time.Second).Fire(context.Background()), ErrNoURL)
}

func TestEvery(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(srv.URL, "", time.Second).Every(ctx, 20*time.Millisecond) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.ErrorIs(t, New("", "", time.Second).Every(context.Background(), time.Millisecond), ErrNoURL)
}
