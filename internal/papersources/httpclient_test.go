package papersources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

func newTestClient(retries int) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		RateLimit:  1000,
		BurstSize:  100,
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
	})
}

func TestNewHTTPClient(t *testing.T) {
	t.Run("applies default values", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{})

		assert.Equal(t, 10*time.Second, client.client.Timeout)
		assert.Equal(t, DefaultUserAgent, client.config.UserAgent)
		assert.Equal(t, 0, client.config.MaxRetries)
		assert.Equal(t, time.Second, client.config.RetryDelay)
	})

	t.Run("negative retries disable retrying", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{MaxRetries: -2})
		assert.Equal(t, 0, client.config.MaxRetries)
	})
}

func TestHTTPClient_Do(t *testing.T) {
	t.Run("sets headers", func(t *testing.T) {
		var ua, key string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua = r.Header.Get("User-Agent")
			key = r.Header.Get("x-api-key")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewHTTPClient(HTTPClientConfig{RateLimit: 100, APIKey: "secret", APIKeyHeader: "x-api-key"})
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, DefaultUserAgent, ua)
		assert.Equal(t, "secret", key)
	})

	t.Run("does not retry by default", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		resp, err := newTestClient(0).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries 429 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		resp, err := newTestClient(3).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("returns last response when retries are exhausted", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		resp, err := newTestClient(2).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("context deadline surfaces as timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

		_, err := newTestClient(3).Do(req)
		require.Error(t, err)
		assert.True(t, IsTimeout(err))
	})
}

func TestHTTPClient_retryDelay(t *testing.T) {
	client := newTestClient(1)

	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Millisecond, client.retryDelay(resp))

	resp.Header.Set("Retry-After", "2")
	assert.Equal(t, 2*time.Second, client.retryDelay(resp))

	resp.Header.Set("Retry-After", "garbage")
	assert.Equal(t, time.Millisecond, client.retryDelay(resp))
}

func TestCheckStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	err = CheckStatus("PubMed", resp)
	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	assert.Equal(t, "Internal Server Error", ue.Status)
	assert.Equal(t, "boom", ue.Message)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
