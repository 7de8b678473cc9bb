package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_SendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/breeds", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Beagle"}]`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL + "/v1/", Headers: map[string]string{"x-api-key": "secret", "": "x"}})
	require.NoError(t, err)

	var out []struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "breeds", url.Values{"limit": {"10"}}, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Beagle", out[0].Name)
}

func TestGetJSON_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "/x", nil, nil)
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadGateway, he.StatusCode)
	assert.Equal(t, "nope", he.Body)
}

func TestResolveURL(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	_, err = c.resolveURL("/relative")
	assert.Error(t, err)

	got, err := c.resolveURL("https://api.thedogapi.com/v1/breeds")
	require.NoError(t, err)
	assert.Equal(t, "https://api.thedogapi.com/v1/breeds", got)

	_, err = New(Options{BaseURL: "::bad"})
	assert.Error(t, err)
}
