package confs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrUnknownProfile  = errors.New("unknown APP_SETTINGS profile")
	ErrMissingDatabase = errors.New("missing required database configuration: DATABASE_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
)

// Profile selects one of the fixed configuration sets.
type Profile int

const (
	Development Profile = iota
	Testing
	Production
)

func (p Profile) String() string {
	switch p {
	case Development:
		return "development"
	case Testing:
		return "testing"
	case Production:
		return "production"
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// ParseProfile accepts the short names and the dotted class names used by
// older deployments (project.config.TestingConfig).
func ParseProfile(s string) (Profile, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "config")

	switch name {
	case "", "development", "dev":
		return Development, nil
	case "testing", "test":
		return Testing, nil
	case "production", "prod":
		return Production, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

type Config struct {
	Profile         Profile
	DatabaseURL     string
	Debug           bool
	Testing         bool
	HTTPAddr        string
	LogDir          string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// LoadConfig loads environment variables from a .env file if present and
// builds the configuration for the profile named by APP_SETTINGS.
func LoadConfig() (Config, error) {
	loadDotEnv()
	return FromEnv(os.Getenv("APP_SETTINGS"))
}

// FromEnv builds the configuration for an explicit profile name, reading
// everything else from the environment.
func FromEnv(settings string) (Config, error) {
	profile, err := ParseProfile(settings)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Profile:         profile,
		HTTPAddr:        getEnv("HTTP_ADDR", "0.0.0.0:5000"),
		LogDir:          os.Getenv("LOG_DIR"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
	}

	switch profile {
	case Development:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		cfg.Debug = true
	case Testing:
		cfg.DatabaseURL = os.Getenv("DATABASE_TEST_URL")
		cfg.Testing = true
	case Production:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = dsnFromParts()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s profile: %w", c.Profile, ErrMissingDatabase)
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	return nil
}

func loadDotEnv() {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
}

// dsnFromParts builds a key/value DSN from the DB_* variables, or returns ""
// when any of them is missing.
func dsnFromParts() string {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbPassword == "" || dbName == "" {
		return ""
	}

	sslMode := "require"
	if dbHost == "localhost" || dbHost == "127.0.0.1" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		dbHost, dbUser, dbPassword, dbName, dbPort, sslMode)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
