package commerce

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cl, err := NewClient(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)
	return cl
}

func TestClientProduct(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/product/abc", r.URL.Path)
			_, _ = io.WriteString(w, `{"_id":"abc","name":"Attar","price":500,"status":true}`)
		})

		p, err := cl.Product(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, "Attar", p.Name)
		assert.Equal(t, 500.0, p.Price)
	})

	t.Run("EmptyObjectIsNotFound", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		})

		_, err := cl.Product(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.False(t, Retryable(err))
	})

	t.Run("EscapesID", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/product/a%2Fb", r.URL.EscapedPath())
			_, _ = io.WriteString(w, `{"name":"x"}`)
		})

		p, err := cl.Product(context.Background(), "a/b")
		require.NoError(t, err)
		assert.Equal(t, "a/b", p.ID)
	})

	t.Run("DotID", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("must not be called")
		})

		_, err := cl.Product(context.Background(), "..")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("ServerError", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := cl.Product(context.Background(), "abc")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.Code)
		assert.True(t, Retryable(err))
	})
}

func TestClientProducts(t *testing.T) {
	t.Run("All", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products", r.URL.Path)
			_, _ = io.WriteString(w, `{"data":[{"_id":"1","name":"A"},{"_id":"2","name":"B"}]}`)
		})

		ps, err := cl.Products(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, ps, 2)
		assert.Equal(t, "B", ps[1].Name)
	})

	t.Run("Category", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products/groceries", r.URL.Path)
			_, _ = io.WriteString(w, `{"data":[]}`)
		})

		ps, err := cl.Products(context.Background(), "groceries")
		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("MissingData", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		})

		ps, err := cl.Products(context.Background(), "")
		require.NoError(t, err)
		assert.NotNil(t, ps)
		assert.Empty(t, ps)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"data": [`)
		})

		_, err := cl.Products(context.Background(), "")
		require.Error(t, err)
		assert.False(t, Retryable(err))
	})
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", time.Second, zap.NewNop())
	assert.Error(t, err)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(&StatusError{Code: http.StatusNotFound}))
	assert.True(t, Retryable(&StatusError{Code: http.StatusTooManyRequests}))
	assert.True(t, Retryable(&url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}))
}
