package thepetapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-records/internal/domain/breeds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreeds_MapsBothIDStyles(t *testing.T) {
	var gotKey string
	dogs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		assert.Equal(t, "/v1/breeds", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Affenpinscher"},{"name":"Mutt Supreme"},{"id":2,"name":" "}]`))
	}))
	defer dogs.Close()
	cats := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"abys","name":"Abyssinian"}]`))
	}))
	defer cats.Close()

	c, err := New(Config{DogBaseURL: dogs.URL, CatBaseURL: cats.URL, DogAPIKey: "k-dog"})
	require.NoError(t, err)

	got, err := c.Breeds(context.Background(), breeds.SpeciesDog)
	require.NoError(t, err)
	assert.Equal(t, "k-dog", gotKey)
	assert.Equal(t, []breeds.Breed{
		{ID: "1", Name: "Affenpinscher"},
		{ID: "mutt_supreme", Name: "Mutt Supreme"},
	}, got)

	got, err = c.Breeds(context.Background(), breeds.SpeciesCat)
	require.NoError(t, err)
	assert.Equal(t, []breeds.Breed{{ID: "abys", Name: "Abyssinian"}}, got)
}

func TestBreeds_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(Config{DogBaseURL: srv.URL, CatBaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Breeds(context.Background(), breeds.SpeciesDog)
	assert.Error(t, err)
}
