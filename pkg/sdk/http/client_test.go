package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			assert.Equal(t, "v", r.Header.Get("X-Test"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"pet"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", ClientOptions{Timeout: 2 * time.Second})

	var out struct {
		Name string `json:"name"`
	}
	resp, err := c.DoRequest(context.Background(), http.MethodGet, "/ok", &RequestOptions{
		Headers: map[string]string{"X-Test": "v"},
		Params:  map[string]any{"page": 1},
	}, &out)
	require.NoError(t, ParseHTTPError(resp, err))
	assert.Equal(t, "pet", out.Name)

	resp, err = c.DoRequest(context.Background(), http.MethodPost, "/fail", &RequestOptions{Data: map[string]int{"a": 1}}, nil)
	herr := ParseHTTPError(resp, err)
	require.Error(t, herr)
	assert.Contains(t, herr.Error(), "status=500")
	assert.Contains(t, herr.Error(), "boom")

	_, err = c.DoRequest(context.Background(), http.MethodDelete, "/ok", nil, nil)
	assert.Error(t, err)
}
