package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.InsecureSkipVerify = false
	cfg.RequestsPerSecond = 0 // tests should not throttle
	cfg.Headers = map[string]string{"Authorization": "Bearer test-token"}

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestGetJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "/api/v2/things", r.URL.Path)
		fmt.Fprint(w, `{"name":"thing-1"}`)
	}))

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/api/v2/things", &out))
	assert.Equal(t, "thing-1", out.Name)
}

func TestPostJSON(t *testing.T) {
	t.Run("sends json body", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusCreated)
		}))
		err := c.PostJSON(context.Background(), "/api/v2/scopes", map[string]string{"name": "s"}, nil)
		require.NoError(t, err)
	})

	t.Run("nil out skips decoding", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json at all")
		}))
		require.NoError(t, c.PostJSON(context.Background(), "/x", map[string]int{"a": 1}, nil))
	})
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scope not found", http.StatusNotFound)
	}))

	err := c.GetJSON(context.Background(), "/api/v2/scopes/missing", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, http.MethodGet, apiErr.Method)
	assert.Contains(t, apiErr.Body, "scope not found")
	assert.True(t, IsNotFound(err))
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(&APIError{StatusCode: 500}))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", &APIError{StatusCode: 404})))
}

func TestOn404(t *testing.T) {
	notFound := &APIError{StatusCode: 404}

	t.Run("first success stops the chain", func(t *testing.T) {
		called := 0
		err := On404(
			func() error { called++; return nil },
			func() error { called++; return errors.New("never runs") },
		)
		require.NoError(t, err)
		assert.Equal(t, 1, called)
	})

	t.Run("404 advances to next alternative", func(t *testing.T) {
		var order []string
		err := On404(
			func() error { order = append(order, "create"); return notFound },
			func() error { order = append(order, "update"); return nil },
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"create", "update"}, order)
	})

	t.Run("other errors abort", func(t *testing.T) {
		boom := errors.New("boom")
		err := On404(
			func() error { return boom },
			func() error { t.Fatal("must not run"); return nil },
		)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("exhausted chain is nil", func(t *testing.T) {
		assert.NoError(t, On404(func() error { return notFound }))
		assert.NoError(t, On404())
	})
}

func TestCollectPages(t *testing.T) {
	t.Run("concatenates until empty page", func(t *testing.T) {
		pages := map[int][]string{
			1: {"a", "b"},
			2: {"c"},
		}
		out, err := CollectPages(context.Background(), func(ctx context.Context, page int) ([]string, error) {
			return pages[page], nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, out)
	})

	t.Run("empty first page", func(t *testing.T) {
		out, err := CollectPages(context.Background(), func(ctx context.Context, page int) ([]int, error) {
			return nil, nil
		})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		boom := errors.New("page fetch failed")
		_, err := CollectPages(context.Background(), func(ctx context.Context, page int) ([]int, error) {
			if page == 2 {
				return nil, boom
			}
			return []int{page}, nil
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("against a paginated server", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page > 3 {
				fmt.Fprint(w, `{"result":[]}`)
				return
			}
			fmt.Fprintf(w, `{"result":["item-%d"]}`, page)
		}))

		out, err := CollectPages(context.Background(), func(ctx context.Context, page int) ([]string, error) {
			var resp struct {
				Result []string `json:"result"`
			}
			if err := c.GetJSON(ctx, fmt.Sprintf("/items?page=%d", page), &resp); err != nil {
				return nil, err
			}
			return resp.Result, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"item-1", "item-2", "item-3"}, out)
	})
}
