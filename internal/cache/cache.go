// Package cache keeps the server's channel list on disk so that links can be
// built and decoded without a round trip per invocation.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dedene/narrowlink-cli/internal/channels"
)

// ChannelCache is the on-disk representation of a cached channel list.
type ChannelCache struct {
	Realm     string             `json:"realm"`
	Channels  []channels.Channel `json:"channels"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// LoadChannels reads the cache file and returns its channels if they belong
// to realm and are younger than ttl.
// Returns (nil, nil) when: file missing, JSON corrupt, realm differs, or TTL expired.
// Only returns a non-nil error for unexpected read failures.
func LoadChannels(path, realm string, ttl time.Duration) ([]channels.Channel, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is internal cache, not untrusted input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading cache: %w", err)
	}

	var cc ChannelCache
	if err := json.Unmarshal(data, &cc); err != nil {
		// Corrupt cache -- treat as miss.
		return nil, nil //nolint:nilerr
	}

	if cc.Realm != realm {
		return nil, nil
	}

	if time.Since(cc.FetchedAt) > ttl {
		return nil, nil
	}

	return cc.Channels, nil
}

// SaveChannels writes the channel list for realm to the cache file atomically.
func SaveChannels(path, realm string, chans []channels.Channel) error {
	cc := ChannelCache{
		Realm:     realm,
		Channels:  chans,
		FetchedAt: time.Now(),
	}

	data, err := json.MarshalIndent(cc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	data = append(data, '\n')

	return atomicWrite(path, data)
}

// Clear removes the cache file. A missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache: %w", err)
	}

	return nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	tmpPath = ""

	return nil
}
