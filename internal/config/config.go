package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/titanous/json5"
)

// ErrNoRealm is returned by RealmURL when no realm is configured.
var ErrNoRealm = errors.New("no realm configured; pass --realm or run 'narrowlink config set realm <url>'")

// Config holds user preferences.
type Config struct {
	Realm        string `json:"realm,omitempty"`
	Email        string `json:"email,omitempty"`
	SelfUserID   *int64 `json:"self_user_id,omitempty"`
	FeatureLevel *int   `json:"feature_level,omitempty"`
	ChannelsFile string `json:"channels_file,omitempty"`
	CacheTTL     string `json:"cache_ttl,omitempty"`
	AutoCopy     *bool  `json:"auto_copy,omitempty"`
	AutoOpen     *bool  `json:"auto_open,omitempty"`
}

// knownKey describes a config key and its optional validator.
type knownKey struct {
	validate func(string) error
}

var knownKeys = map[string]knownKey{
	"realm":         {validate: validateRealm},
	"email":         {validate: nil},
	"self_user_id":  {validate: validateNonNegativeInt},
	"feature_level": {validate: validateNonNegativeInt},
	"channels_file": {validate: nil},
	"cache_ttl":     {validate: validateDuration},
	"auto_copy":     {validate: validateBool},
	"auto_open":     {validate: validateBool},
}

func validateBool(val string) error {
	if val != "true" && val != "false" {
		return fmt.Errorf("must be true or false")
	}

	return nil
}

func validateDuration(val string) error {
	_, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}

	return nil
}

func validateNonNegativeInt(val string) error {
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}

	return nil
}

func validateRealm(val string) error {
	_, err := ParseRealm(val)

	return err
}

// ParseRealm parses a server URL and reduces it to its origin.
func ParseRealm(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid realm URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("realm must be an http or https URL")
	}

	if u.Host == "" {
		return nil, fmt.Errorf("realm URL has no host")
	}

	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

// RealmURL returns the configured realm origin.
func (cfg *Config) RealmURL() (*url.URL, error) {
	if cfg == nil || cfg.Realm == "" {
		return nil, ErrNoRealm
	}

	return ParseRealm(cfg.Realm)
}

// CacheTTLDuration parses CacheTTL as a time.Duration.
// Returns 24h on empty or invalid values.
func (cfg *Config) CacheTTLDuration() time.Duration {
	if cfg.CacheTTL == "" {
		return 24 * time.Hour
	}

	d, err := time.ParseDuration(cfg.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}

	return d
}

// Load reads config from the JSON5 file at path.
// Returns an empty Config if the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if os.IsNotExist(err) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes config as pretty-printed JSON atomically.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	data = append(data, '\n')

	return atomicWrite(path, data)
}

// atomicWrite writes data to path via temp-file + rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	tmpPath = "" // prevent deferred cleanup

	return nil
}

func formatBool(b *bool) (string, bool) {
	if b == nil {
		return "", false
	}

	return strconv.FormatBool(*b), true
}

// Get returns the string value for a config key and whether it is set.
func (cfg *Config) Get(key string) (string, bool) {
	switch key {
	case "realm":
		return cfg.Realm, cfg.Realm != ""
	case "email":
		return cfg.Email, cfg.Email != ""
	case "self_user_id":
		if cfg.SelfUserID == nil {
			return "", false
		}

		return strconv.FormatInt(*cfg.SelfUserID, 10), true
	case "feature_level":
		if cfg.FeatureLevel == nil {
			return "", false
		}

		return strconv.Itoa(*cfg.FeatureLevel), true
	case "channels_file":
		return cfg.ChannelsFile, cfg.ChannelsFile != ""
	case "cache_ttl":
		return cfg.CacheTTL, cfg.CacheTTL != ""
	case "auto_copy":
		return formatBool(cfg.AutoCopy)
	case "auto_open":
		return formatBool(cfg.AutoOpen)
	default:
		return "", false
	}
}

// Set sets a config key to a value after validation.
func (cfg *Config) Set(key, value string) error {
	kk, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s (valid keys: %s)", key, strings.Join(KnownKeys(), ", "))
	}

	if kk.validate != nil {
		if err := kk.validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}

	switch key {
	case "realm":
		realm, _ := ParseRealm(value)
		cfg.Realm = strings.TrimSuffix(realm.String(), "/")
	case "email":
		cfg.Email = value
	case "self_user_id":
		n, _ := strconv.ParseInt(value, 10, 64)
		cfg.SelfUserID = &n
	case "feature_level":
		n, _ := strconv.Atoi(value)
		cfg.FeatureLevel = &n
	case "channels_file":
		cfg.ChannelsFile = value
	case "cache_ttl":
		cfg.CacheTTL = value
	case "auto_copy":
		b := value == "true"
		cfg.AutoCopy = &b
	case "auto_open":
		b := value == "true"
		cfg.AutoOpen = &b
	}

	return nil
}

// Unset removes a config key (resets to zero/nil).
func (cfg *Config) Unset(key string) error {
	if _, ok := knownKeys[key]; !ok {
		return fmt.Errorf("unknown config key: %s (valid keys: %s)", key, strings.Join(KnownKeys(), ", "))
	}

	switch key {
	case "realm":
		cfg.Realm = ""
	case "email":
		cfg.Email = ""
	case "self_user_id":
		cfg.SelfUserID = nil
	case "feature_level":
		cfg.FeatureLevel = nil
	case "channels_file":
		cfg.ChannelsFile = ""
	case "cache_ttl":
		cfg.CacheTTL = ""
	case "auto_copy":
		cfg.AutoCopy = nil
	case "auto_open":
		cfg.AutoOpen = nil
	}

	return nil
}

// KnownKeys returns a sorted list of valid config key names.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// --- Context helpers ---

type ctxKey struct{}

// WithConfig stores a Config in the context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	if v := ctx.Value(ctxKey{}); v != nil {
		if cfg, ok := v.(*Config); ok {
			return cfg
		}
	}

	return nil
}
