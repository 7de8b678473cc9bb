package router

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-records/docs"
	"pet-records/internal/adapters/auth/bcrypt"
	"pet-records/internal/adapters/breeds/thepetapi"
	rediscache "pet-records/internal/adapters/cache/redis"
	"pet-records/internal/adapters/storage/files"
	mem "pet-records/internal/adapters/storage/memory"
	pg "pet-records/internal/adapters/storage/postgres"
	"pet-records/internal/domain/admin"
	"pet-records/internal/domain/breeds"
	"pet-records/internal/domain/care"
	"pet-records/internal/domain/events"
	"pet-records/internal/domain/identity"
	"pet-records/internal/domain/notifications"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/users"
	"pet-records/internal/middleware"
	"pet-records/internal/platform/config"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/platform/reqvalidate"
	"pet-records/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config *config.Config
	Logger logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Tokens       auth.TokenIssuer  // nil => login sin token
	Authn        auth.Authenticator

	// Opcionales: si vienen, se usan Postgres y Redis. Si no, in-memory.
	DB    *sql.DB
	Redis redis.Cmdable

	// Catálogo de razas; nil => thedogapi/thecatapi según Config.
	Catalog breeds.Catalog

	// Registry propio por router para no chocar entre tests.
	Registry *prometheus.Registry
}

type repos struct {
	users         users.Repository
	pets          pets.Repository
	events        events.Repository
	care          care.Repository
	notifications notifications.Repository
	attempts      users.AttemptStore
	breedCache    breeds.Cache
}

func selectRepos(opts Options) repos {
	var rp repos
	if opts.DB != nil {
		rp.users = pg.NewUsersRepo(opts.DB)
		rp.pets = pg.NewPetsRepo(opts.DB)
		rp.events = pg.NewEventsRepo(opts.DB)
		rp.care = pg.NewCareRepo(opts.DB)
		rp.notifications = pg.NewNotificationsRepo(opts.DB)
	} else {
		rp.users = mem.NewUserRepo()
		rp.pets = mem.NewPetRepo()
		rp.events = mem.NewEventRepo()
		rp.care = mem.NewCareRepo()
		rp.notifications = mem.NewNotificationRepo()
	}

	if opts.Redis != nil {
		rp.attempts = rediscache.NewAttemptStore(opts.Redis)
		rp.breedCache = rediscache.NewBreedCache(opts.Redis)
	} else {
		rp.attempts = mem.NewAttemptStore()
		rp.breedCache = mem.NewBreedCache()
	}
	return rp
}

// NewRouter arma servicios y rutas. Si Config.Admin.Email viene, asegura el
// admin inicial antes de devolver el handler.
func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := metrics.New(reg)

	authn := opts.Authn
	if authn == nil {
		authn = bcrypt.New(0)
	}

	catalog := opts.Catalog
	if catalog == nil {
		client, err := thepetapi.New(thepetapi.Config{
			DogAPIKey: cfg.Breeds.DogAPIKey,
			CatAPIKey: cfg.Breeds.CatAPIKey,
			Timeout:   cfg.Breeds.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("breed catalog: %w", err)
		}
		catalog = client
	}

	photos, err := files.New(cfg.Photos.Dir, cfg.Photos.BaseURL, log.With(map[string]any{"component": "photos"}))
	if err != nil {
		return nil, err
	}

	rp := selectRepos(opts)

	// Services por módulo
	usersSvc := users.NewService(rp.users, authn,
		users.WithLogger(log.With(map[string]any{"component": "users"})),
		users.WithMetrics(m),
		users.WithAttemptPolicy(attemptPolicy(cfg.Login)),
	)
	notifSvc := notifications.NewService(rp.notifications, log.With(map[string]any{"component": "notifications"}), m)
	careSvc := care.NewService(rp.care,
		care.WithNotifier(notifSvc),
		care.WithRoleLookup(usersSvc),
		care.WithLogger(log.With(map[string]any{"component": "care"})),
		care.WithMetrics(m),
	)
	petsSvc := pets.NewService(rp.pets,
		pets.WithCare(careSvc),
		pets.WithRoleLookup(usersSvc),
		pets.WithPhotoStore(photos),
		pets.WithLogger(log.With(map[string]any{"component": "pets"})),
		pets.WithMetrics(m),
	)
	eventsSvc := events.NewService(rp.events, petsSvc,
		events.WithAttachmentStore(photos),
		events.WithMediaBase(cfg.Photos.BaseURL),
		events.WithLogger(log.With(map[string]any{"component": "events"})),
		events.WithMetrics(m),
	)
	breedsSvc := breeds.NewService(catalog,
		breeds.WithCache(rp.breedCache),
		breeds.WithTTL(cfg.Breeds.CacheTTL),
		breeds.WithLogger(log.With(map[string]any{"component": "breeds"})),
		breeds.WithMetrics(m),
	)
	adminSvc := admin.NewService(petsSvc, eventsSvc, careSvc, usersSvc)

	if err := ensureAdmin(usersSvc, cfg.Admin, log); err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderDebugUserID, middleware.HeaderDebugRole},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	if opts.AuthVerifier != nil {
		r.Use(middleware.CurrentRole(usersSvc, log.With(map[string]any{"component": "auth"})))
	}
	r.Use(middleware.RequestLog(log))

	r.Get("/health", healthHandler(opts.DB, opts.Redis))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	if cfg.Swagger {
		docs.SwaggerInfo.Title = "Pet Records API"
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	media := "/" + strings.Trim(cfg.Photos.BaseURL, "/")
	r.Handle(media+"/*", http.StripPrefix(media+"/", http.FileServer(http.Dir(photos.Root()))))

	v := reqvalidate.New()

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, users.HandlerDeps{
		Attempts: rp.attempts,
		Tokens:   opts.Tokens,
		Validate: v,
	})
	pets.RegisterRoutes(r, petsSvc, v)
	events.RegisterRoutes(r, eventsSvc)
	care.RegisterRoutes(r, careSvc, petsSvc)
	notifications.RegisterRoutes(r, notifSvc)
	breeds.RegisterRoutes(r, breedsSvc)
	admin.RegisterRoutes(r, adminSvc)

	return r, nil
}

func attemptPolicy(c config.LoginConfig) identity.AttemptPolicy {
	p := identity.DefaultAttemptPolicy()
	if c.MaxAttempts > 0 {
		p.Max = c.MaxAttempts
	}
	if c.Window > 0 {
		p.Window = c.Window
	}
	return p
}

func ensureAdmin(svc *users.Service, c config.AdminConfig, log logger.Logger) error {
	if strings.TrimSpace(c.Email) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, created, err := svc.EnsureAdmin(ctx, users.StaffInput{
		Name:           c.Name,
		Email:          c.Email,
		Password:       c.Password,
		NationalIDType: c.NationalIDType,
		NationalID:     c.NationalID,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Info("initial admin created", map[string]any{"email": users.NormalizeEmail(c.Email)})
	}
	return nil
}

func healthHandler(db *sql.DB, rdb redis.Cmdable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var errs []error
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				errs = append(errs, fmt.Errorf("postgres: %w", err))
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				errs = append(errs, fmt.Errorf("redis: %w", err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			http.Error(w, "unavailable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
