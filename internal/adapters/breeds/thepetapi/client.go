package thepetapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pet-records/internal/domain/breeds"
	"pet-records/internal/platform/httpclient"
)

const (
	DogAPIURL = "https://api.thedogapi.com"
	CatAPIURL = "https://api.thecatapi.com"

	breedsPath = "/v1/breeds"
)

type Config struct {
	DogBaseURL string
	CatBaseURL string
	DogAPIKey  string
	CatAPIKey  string
	Timeout    time.Duration
}

// Client consulta thedogapi / thecatapi. Ambas exponen el mismo contrato.
type Client struct {
	dog *httpclient.Client
	cat *httpclient.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.DogBaseURL == "" {
		cfg.DogBaseURL = DogAPIURL
	}
	if cfg.CatBaseURL == "" {
		cfg.CatBaseURL = CatAPIURL
	}

	dog, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.DogBaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{"x-api-key": cfg.DogAPIKey},
	})
	if err != nil {
		return nil, fmt.Errorf("dog api client: %w", err)
	}
	cat, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.CatBaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{"x-api-key": cfg.CatAPIKey},
	})
	if err != nil {
		return nil, fmt.Errorf("cat api client: %w", err)
	}
	return &Client{dog: dog, cat: cat}, nil
}

// apiBreed: thedogapi usa ids numéricos y thecatapi ids de texto.
type apiBreed struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

func (c *Client) Breeds(ctx context.Context, species string) ([]breeds.Breed, error) {
	var hc *httpclient.Client
	switch species {
	case breeds.SpeciesDog:
		hc = c.dog
	case breeds.SpeciesCat:
		hc = c.cat
	default:
		return nil, breeds.ErrInvalidSpecies
	}

	var raw []apiBreed
	if err := hc.GetJSON(ctx, breedsPath, nil, &raw); err != nil {
		return nil, err
	}

	out := make([]breeds.Breed, 0, len(raw))
	for _, b := range raw {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			continue
		}
		out = append(out, breeds.Breed{ID: idOf(b.ID, name), Name: name})
	}
	return out, nil
}

func idOf(v any, name string) string {
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("%d", int64(id))
	}
	return breeds.Slug(name)
}
