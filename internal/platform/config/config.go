package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Log     LogConfig
	Photos  PhotoConfig
	Breeds  BreedsConfig
	Login   LoginConfig
	CORS    CORSConfig
	Admin   AdminConfig
	Swagger bool
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DBConfig struct {
	DSN string // vacío => repos in-memory
}

type RedisConfig struct {
	URL string // vacío => cache y throttle in-memory
}

type JWTConfig struct {
	Secret string // vacío => modo dev con X-Debug-User-ID
	TTL    time.Duration
	Issuer string
}

type LogConfig struct {
	Level  string
	Format string
}

type PhotoConfig struct {
	Dir     string
	BaseURL string
}

type BreedsConfig struct {
	DogAPIKey string
	CatAPIKey string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AdminConfig describe el admin inicial. Sin email no se crea ninguno.
type AdminConfig struct {
	Name           string
	Email          string
	Password       string
	NationalIDType string
	NationalID     string
}

// Load lee un archivo de configuración opcional (.env por defecto) y luego el entorno,
// que siempre tiene prioridad.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
				return nil, err
			}
		}
	}
	v.AutomaticEnv()

	return &Config{
		App: AppConfig{
			Name: v.GetString("APP_NAME"),
			Port: v.GetString("PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		DB:    DBConfig{DSN: v.GetString("DB_DSN")},
		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    duration(v, "JWT_TTL", 24*time.Hour),
			Issuer: v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Photos: PhotoConfig{
			Dir:     v.GetString("PHOTO_DIR"),
			BaseURL: v.GetString("PHOTO_BASE_URL"),
		},
		Breeds: BreedsConfig{
			DogAPIKey: v.GetString("DOG_API_KEY"),
			CatAPIKey: v.GetString("CAT_API_KEY"),
			CacheTTL:  duration(v, "BREED_CACHE_TTL", 24*time.Hour),
			Timeout:   duration(v, "BREED_API_TIMEOUT", 10*time.Second),
		},
		Login: LoginConfig{
			MaxAttempts: v.GetInt("LOGIN_MAX_ATTEMPTS"),
			Window:      duration(v, "LOGIN_WINDOW", 15*time.Minute),
		},
		CORS: CORSConfig{AllowedOrigins: splitCSV(v.GetString("CORS_ALLOWED_ORIGINS"))},
		Admin: AdminConfig{
			Name:           v.GetString("ADMIN_NAME"),
			Email:          v.GetString("ADMIN_EMAIL"),
			Password:       v.GetString("ADMIN_PASSWORD"),
			NationalIDType: v.GetString("ADMIN_NATIONAL_ID_TYPE"),
			NationalID:     v.GetString("ADMIN_NATIONAL_ID"),
		},
		Swagger: v.GetBool("SWAGGER_ENABLED"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "pet-records")
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("PHOTO_DIR", "./data/photos")
	v.SetDefault("PHOTO_BASE_URL", "/media")
	v.SetDefault("JWT_ISSUER", "pet-records")
	v.SetDefault("ADMIN_NAME", "Administrador")
	v.SetDefault("ADMIN_NATIONAL_ID_TYPE", "DNI")
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SWAGGER_ENABLED", true)
}

// duration acepta "15m", "24h" o segundos enteros; valores inválidos usan def.
func duration(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs := v.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func splitCSV(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
