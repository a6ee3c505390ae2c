package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultDevAPIURL  = "http://localhost:8080/api/v1"
	defaultProdAPIURL = "https://api.walkin.app/api/v1"
)

type Config struct {
	Env          string
	APIURL       string
	APITimeout   time.Duration
	AuthTimeout  time.Duration
	DBPath       string
	DeviceSecret string
	PollInterval time.Duration
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads an optional .env file from the working directory, then the
// process environment. Values already set in the environment win over .env.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(path string) Config {
	if path != "" {
		_ = godotenv.Load(path)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	env := strings.ToLower(readString("WALKIN_ENV", EnvDevelopment))
	if env != EnvProduction {
		env = EnvDevelopment
	}

	apiURL := readString("WALKIN_API_URL", "")
	if apiURL == "" {
		apiURL = defaultDevAPIURL
		if env == EnvProduction {
			apiURL = defaultProdAPIURL
		}
	}

	return Config{
		Env:          env,
		APIURL:       strings.TrimRight(apiURL, "/"),
		APITimeout:   readDurationSeconds("WALKIN_API_TIMEOUT_SECONDS", 10),
		AuthTimeout:  readDurationSeconds("WALKIN_AUTH_TIMEOUT_SECONDS", 60),
		DBPath:       readString("WALKIN_DB_PATH", "walkin.db"),
		DeviceSecret: os.Getenv("WALKIN_DEVICE_SECRET"),
		PollInterval: readDurationSeconds("WALKIN_POLL_INTERVAL_SECONDS", 300),
		LogLevel:     readString("WALKIN_LOG_LEVEL", "info"),
		LogFormat:    readString("WALKIN_LOG_FORMAT", "text"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure: readBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
}

// IsProduction reports whether the production profile is active.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func readString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
