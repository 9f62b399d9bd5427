package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool returns the boolean value of the environment variable named by key,
// or fallback if the variable is unset or not parseable by strconv.ParseBool.
func GetEnvBool(key string, fallback bool) bool {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

// Defaults for the playback engine.
const (
	DefaultFPS               = 15
	DefaultMaxRealFrames     = 500
	DefaultTrajectoryLength  = 30
	DefaultMaxLabelsPerGroup = 11
	DefaultCacheSize         = 1024

	// MaxFPS bounds the playback rate and so the number of synthetic
	// frames per real frame pair.
	MaxFPS = 120
)

// Server holds HTTP and logging settings.
type Server struct {
	Port      string
	LogLevel  string
	LogFormat string
}

// Database configures the tracking data source. It is passed to the data
// source at construction; nothing reads connection settings globally.
type Database struct {
	Path      string
	CacheSize int
	Migrate   bool
}

// Simulator holds the scalar knobs of the playback engine.
type Simulator struct {
	FPS               int
	MaxRealFrames     int
	TrajectoryLength  int
	MaxLabelsPerGroup int
}

// Validate reports the first invalid field.
func (s Simulator) Validate() error {
	switch {
	case s.FPS <= 0 || s.FPS > MaxFPS:
		return fmt.Errorf("fps must be in [1, %d], got %d", MaxFPS, s.FPS)
	case s.MaxRealFrames < 2:
		return fmt.Errorf("max real frames must be at least 2, got %d", s.MaxRealFrames)
	case s.TrajectoryLength <= 0:
		return errors.New("trajectory length must be positive")
	case s.MaxLabelsPerGroup < 0:
		return errors.New("max labels per group must not be negative")
	}
	return nil
}

// Config is the full process configuration.
type Config struct {
	Server    Server
	Database  Database
	Simulator Simulator
}

// FromEnv builds a Config from the environment, applying defaults for
// anything unset. Call Load first to pick up a .env file.
func FromEnv() Config {
	return Config{
		Server: Server{
			Port:      GetEnv("PORT", "8080"),
			LogLevel:  GetEnv("LOG_LEVEL", "info"),
			LogFormat: GetEnv("LOG_FORMAT", "json"),
		},
		Database: Database{
			Path:      GetEnv("DB_PATH", "match.db"),
			CacheSize: GetEnvInt("DB_CACHE_SIZE", DefaultCacheSize),
			Migrate:   GetEnvBool("DB_MIGRATE", true),
		},
		Simulator: Simulator{
			FPS:               GetEnvInt("SIM_FPS", DefaultFPS),
			MaxRealFrames:     GetEnvInt("SIM_MAX_REAL_FRAMES", DefaultMaxRealFrames),
			TrajectoryLength:  GetEnvInt("SIM_TRAJECTORY_POINTS", DefaultTrajectoryLength),
			MaxLabelsPerGroup: GetEnvInt("SIM_MAX_LABELS", DefaultMaxLabelsPerGroup),
		},
	}
}
