package atelier

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration sourced from env vars (and an
// optional .env file).
type Config struct {
	APIURL      string
	StatePath   string
	UserAgent   string
	HTTPTimeout time.Duration
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIURL:    strings.TrimSpace(os.Getenv("ATELIER_API_URL")),
		StatePath: fallback(os.Getenv("ATELIER_STATE_PATH"), defaultStatePath()),
		UserAgent: fallback(os.Getenv("ATELIER_USER_AGENT"), defaultUserAgent),
	}

	seconds := fallback(os.Getenv("ATELIER_HTTP_TIMEOUT_SECONDS"), "10")
	if parsed, err := strconv.Atoi(seconds); err == nil && parsed > 0 {
		cfg.HTTPTimeout = time.Duration(parsed) * time.Second
	} else {
		cfg.HTTPTimeout = 10 * time.Second
	}

	if cfg.APIURL == "" {
		return Config{}, goerrors.New("ATELIER_API_URL is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return cfg, nil
}

// ClientConfig derives the gateway client configuration.
func (c Config) ClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    strings.TrimRight(c.APIURL, "/"),
		UserAgent:  c.UserAgent,
		HTTPClient: &http.Client{Timeout: c.HTTPTimeout},
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "atelier-state.db"
	}
	return dir + string(os.PathSeparator) + "atelier" + string(os.PathSeparator) + "state.db"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}
