// Package config loads the replay core's environment and profile
// configuration (spec.md §6 "Environment variables", §6 "profile"):
// a YAML-embedded set of built-in profiles (safe/balanced/fast) that fix
// the fetch concurrency caps and timeouts, plus endpoint, API-key,
// cache-root, self-heal and debug settings read from environment
// variables (with project .env support). No environment variable
// overrides a profile's caps or timeouts.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Profile is one of the three fetch-tuning presets spec.md §6 names.
type Profile string

const (
	ProfileSafe     Profile = "safe"
	ProfileBalanced Profile = "balanced"
	ProfileFast     Profile = "fast"
)

// FetchTuning bundles the concurrency caps and timeouts a profile
// controls (spec.md §5 "bounded concurrency", "per-request timeouts").
type FetchTuning struct {
	ObjectConcurrency  int           `yaml:"object_concurrency"`
	PackageConcurrency int           `yaml:"package_concurrency"`
	GraphQLTimeout     time.Duration `yaml:"graphql_timeout"`
	ArchiveTimeout     time.Duration `yaml:"archive_timeout"`
	MaxRetries         int           `yaml:"max_retries"`
}

// builtinProfilesYAML is the YAML-embedded default table (spec.md §6
// "Three built-in profiles"); its values are not overridden by any
// environment variable.
var builtinProfilesYAML = []byte(`
safe:
  object_concurrency: 4
  package_concurrency: 2
  graphql_timeout: 30s
  archive_timeout: 10s
  max_retries: 5
balanced:
  object_concurrency: 16
  package_concurrency: 8
  graphql_timeout: 30s
  archive_timeout: 10s
  max_retries: 3
fast:
  object_concurrency: 48
  package_concurrency: 16
  graphql_timeout: 15s
  archive_timeout: 5s
  max_retries: 1
`)

// Config is the fully resolved configuration for one process.
type Config struct {
	ArchiveCacheEndpoint string
	ArchiveBlobEndpoint  string
	GRPCEndpoint         string
	GRPCAPIKey           string
	GraphQLEndpoint      string
	CacheRoot            string
	SelfHealDynamicFields bool
	DebugSubsystems      map[string]bool

	Profiles map[Profile]FetchTuning
}

// Load reads an optional .env file (ignored if absent, per godotenv's
// own convention), parses the embedded profile table, and overlays
// process environment variables (spec.md §6).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	var profiles map[Profile]FetchTuning
	if err := yaml.Unmarshal(builtinProfilesYAML, &profiles); err != nil {
		return nil, fmt.Errorf("config: parsing built-in profiles: %w", err)
	}

	cfg := &Config{
		ArchiveCacheEndpoint:  envOr("SUI_REPLAY_ARCHIVE_CACHE_ENDPOINT", "https://checkpoints.sui.io/cache"),
		ArchiveBlobEndpoint:   envOr("SUI_REPLAY_ARCHIVE_BLOB_ENDPOINT", "https://checkpoints.sui.io/blobs"),
		GRPCEndpoint:          envOr("SUI_REPLAY_GRPC_ENDPOINT", "fullnode.mainnet.sui.io:443"),
		GRPCAPIKey:            os.Getenv("SUI_REPLAY_GRPC_API_KEY"),
		GraphQLEndpoint:       envOr("SUI_REPLAY_GRAPHQL_ENDPOINT", "https://sui-mainnet.mystenlabs.com/graphql"),
		CacheRoot:             envOr("SUI_REPLAY_CACHE_ROOT", ".sui-replay-cache"),
		SelfHealDynamicFields: os.Getenv("SUI_REPLAY_SELF_HEAL_DYNAMIC_FIELDS") == "true",
		DebugSubsystems:       parseDebugFlags(os.Getenv("SUI_REPLAY_DEBUG")),
		Profiles:              profiles,
	}
	return cfg, nil
}

// Tuning returns the resolved FetchTuning for a profile, falling back to
// "balanced" for an unrecognized value.
func (c *Config) Tuning(p Profile) FetchTuning {
	if t, ok := c.Profiles[p]; ok {
		return t
	}
	return c.Profiles[ProfileBalanced]
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDebugFlags reads a comma-separated subsystem list
// (e.g. "historical,vm") from SUI_REPLAY_DEBUG.
func parseDebugFlags(raw string) map[string]bool {
	out := make(map[string]bool)
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out[raw[start:i]] = true
			}
			start = i + 1
		}
	}
	return out
}
