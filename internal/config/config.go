package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// documents
	BaseDir      string
	RegistryFile string
	AllowedFiles []string
	DefaultFile  string

	// registry cache; zero TTL means the registry is re-read on every request
	RegistryCacheTTL time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// tracing
	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
}

func Load() Config {
	// .env is optional, real environment wins
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	baseDir := getEnv("BASE_DIR", installDir())
	allowed := getEnvList("ALLOWED_FILES", []string{"dastan", "modes"})

	defaultFile := getEnv("DEFAULT_FILE", "")
	if defaultFile == "" && len(allowed) > 0 {
		defaultFile = allowed[0]
	}

	return Config{
		Env:                env,
		Port:               port,
		BaseDir:            baseDir,
		RegistryFile:       resolvePath(baseDir, getEnv("REGISTRY_FILE", "users.json")),
		AllowedFiles:       allowed,
		DefaultFile:        defaultFile,
		RegistryCacheTTL:   getEnvDuration("REGISTRY_CACHE_TTL", 0),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:    getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// installDir is the directory holding the running binary, falling back to the working directory.
func installDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}

	resolved, err := filepath.EvalSymlinks(exe)
	if err == nil {
		exe = resolved
	}

	return filepath.Dir(exe)
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(baseDir, p)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an integer, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a number, using %g\n", key, v, fallback)
			return fallback
		}

		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a bool, using %t\n", key, v, fallback)
			return fallback
		}

		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a valid duration, using %s\n", key, v, fallback)
			return fallback
		}

		return d
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks and duplicates.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return fallback
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)

	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}

	if len(out) == 0 {
		return fallback
	}

	return out
}
