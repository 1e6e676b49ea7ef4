// Package config loads the migration service's configuration: source and
// target store connection details, matching thresholds, and server
// settings. Loaded once at startup from the environment (optionally via a
// .env file), then selectively hot-swappable through POST /config/*.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	Server    ServerConfig
	SourceDB  SourceDBConfig
	TargetAPI TargetAPIConfig
	TargetDB  TargetDBConfig
	Matching  MatchingConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string
	Port int
}

// SourceDBConfig points at the legacy Windows Photos SQLite store.
type SourceDBConfig struct {
	Path string
}

// Set reports whether a source database path has been configured.
func (c SourceDBConfig) Set() bool { return c.Path != "" }

// TargetAPIConfig holds Immich's HTTP API connection details.
type TargetAPIConfig struct {
	URL    string
	APIKey string
}

// Set reports whether both URL and API key are configured.
func (c TargetAPIConfig) Set() bool { return c.URL != "" && c.APIKey != "" }

// TargetDBConfig holds Immich's PostgreSQL connection details, used for
// the read-only Target Reader. Password is a secret: never echoed by
// GET /config.
type TargetDBConfig struct {
	Host, Port, Name, User, Password string
	MaxOpenConns, MaxIdleConns       int
}

// Set reports whether enough fields are present to attempt a connection.
func (c TargetDBConfig) Set() bool { return c.Host != "" && c.Name != "" }

// MatchingConfig holds the Geometric Matcher / Classifier tunables exposed
// over HTTP.
type MatchingConfig struct {
	MinOverlapScore    float64           // min_overlap_score, default 0.30 (Thresholds.MinIoU)
	MinPhotosInCluster int               // min_photos_in_cluster, default 1
	PathMappings       map[string]string // target-side path prefix -> local prefix, thumbnail proxying only
}

const (
	defaultMinOverlapScore    = 0.30
	defaultMinPhotosInCluster = 1
	defaultServerPort         = 8090
)

func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// parsePathMappings parses "target1=local1,target2=local2" into a map.
func parsePathMappings(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	mappings := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		mappings[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return mappings
}

// pathMappingsFile is the shape of an optional PATH_MAPPINGS_FILE: a small
// YAML document naming the target-side-prefix -> local-prefix mappings,
// more convenient to hand-maintain than the comma-separated env var when
// there are many of them.
type pathMappingsFile struct {
	Mappings map[string]string `yaml:"mappings"`
}

// loadPathMappingsFile reads path mappings from a YAML file, if path is
// non-empty. A missing or unreadable file yields an empty map rather than
// failing startup; the env var remains the authoritative override.
func loadPathMappingsFile(path string) map[string]string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc pathMappingsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc.Mappings
}

// mergePathMappings layers fileMappings under envMappings: env var entries
// win on key collision.
func mergePathMappings(fileMappings, envMappings map[string]string) map[string]string {
	if len(fileMappings) == 0 {
		return envMappings
	}
	merged := make(map[string]string, len(fileMappings)+len(envMappings))
	for k, v := range fileMappings {
		merged[k] = v
	}
	for k, v := range envMappings {
		merged[k] = v
	}
	return merged
}

// Load reads configuration from the environment, loading a .env file first
// if present (missing .env is not an error).
func Load() *Config {
	_ = godotenv.Load()

	pathMappings := mergePathMappings(
		loadPathMappingsFile(os.Getenv("PATH_MAPPINGS_FILE")),
		parsePathMappings(os.Getenv("PATH_MAPPINGS")),
	)

	return &Config{
		Server: ServerConfig{
			Host: os.Getenv("SERVER_HOST"),
			Port: envInt("SERVER_PORT", defaultServerPort),
		},
		SourceDB: SourceDBConfig{
			Path: os.Getenv("SOURCE_DB_PATH"),
		},
		TargetAPI: TargetAPIConfig{
			URL:    os.Getenv("TARGET_API_URL"),
			APIKey: os.Getenv("TARGET_API_KEY"),
		},
		TargetDB: TargetDBConfig{
			Host:         os.Getenv("TARGET_DB_HOST"),
			Port:         envString("TARGET_DB_PORT", "5432"),
			Name:         os.Getenv("TARGET_DB_NAME"),
			User:         os.Getenv("TARGET_DB_USER"),
			Password:     os.Getenv("TARGET_DB_PASSWORD"),
			MaxOpenConns: envInt("TARGET_DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("TARGET_DB_MAX_IDLE_CONNS", 2),
		},
		Matching: MatchingConfig{
			MinOverlapScore:    envFloat("MIN_OVERLAP_SCORE", defaultMinOverlapScore),
			MinPhotosInCluster: envInt("MIN_PHOTOS_IN_CLUSTER", defaultMinPhotosInCluster),
			PathMappings:       pathMappings,
		},
	}
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
