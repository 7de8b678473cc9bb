package breeds

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"

	"golang.org/x/sync/singleflight"
)

var ErrInvalidSpecies = errors.New("species must be dog or cat")

const (
	SpeciesDog = "dog"
	SpeciesCat = "cat"

	DefaultTTL          = 24 * time.Hour
	DefaultFetchTimeout = 10 * time.Second
)

type Breed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog es el proveedor externo de razas.
type Catalog interface {
	Breeds(ctx context.Context, species string) ([]Breed, error)
}

// Cache guarda el catálogo por especie.
type Cache interface {
	Get(ctx context.Context, species string) ([]Breed, bool, error)
	Set(ctx context.Context, species string, items []Breed, ttl time.Duration) error
}

type Service struct {
	catalog Catalog
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	log     logger.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFetchTimeout acota la llamada compartida al proveedor.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func NewService(catalog Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		ttl:     DefaultTTL,
		timeout: DefaultFetchTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseSpecies acepta también los nombres en castellano.
func ParseSpecies(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case SpeciesDog, "perro":
		return SpeciesDog, nil
	case SpeciesCat, "gato":
		return SpeciesCat, nil
	}
	return "", ErrInvalidSpecies
}

// List devuelve el catálogo de la especie. Los misses concurrentes comparten
// una sola llamada al proveedor. Si el proveedor falla se devuelve la lista
// local, que no se cachea.
func (s *Service) List(ctx context.Context, species string) ([]Breed, error) {
	species, err := ParseSpecies(species)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx, species)
		if err != nil {
			s.log.Warn("breeds cache read failed", map[string]any{"species": species, "error": err})
		} else if ok {
			s.metrics.IncBreedLookup(species, "cache")
			return items, nil
		}
	}

	// La llamada compartida no depende del request que la inició.
	v, err, _ := s.group.Do(species, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.fetch(fctx, species)
	})
	if err != nil {
		s.metrics.IncBreedLookup(species, "fallback")
		s.log.Error("breeds upstream failed", map[string]any{"species": species, "error": err})
		return Fallback(species), nil
	}
	s.metrics.IncBreedLookup(species, "upstream")
	return v.([]Breed), nil
}

func (s *Service) fetch(ctx context.Context, species string) ([]Breed, error) {
	if s.catalog == nil {
		return nil, errors.New("breed catalog not configured")
	}
	items, err := s.catalog.Breeds(ctx, species)
	if err != nil {
		return nil, err
	}
	s.log.Info("breeds upstream ok", map[string]any{"species": species, "count": len(items)})

	if s.cache != nil {
		if err := s.cache.Set(ctx, species, items, s.ttl); err != nil {
			s.log.Warn("breeds cache write failed", map[string]any{"species": species, "error": err})
		}
	}
	return items, nil
}
