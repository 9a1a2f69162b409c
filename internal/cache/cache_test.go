package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedene/narrowlink-cli/internal/channels"
)

const testRealm = "https://chat.example.com"

var testChannels = []channels.Channel{
	{ID: 5, Name: "general", Description: "Everything else"},
	{ID: 42, Name: "mobile team", InviteOnly: true},
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.json")

	chans, err := LoadChannels(path, testRealm, 24*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, chans)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")

	require.NoError(t, SaveChannels(path, testRealm, testChannels))

	loaded, err := LoadChannels(path, testRealm, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, testChannels, loaded)
}

func TestLoadOtherRealm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")

	require.NoError(t, SaveChannels(path, testRealm, testChannels))

	loaded, err := LoadChannels(path, "https://other.example.org", 24*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")

	cc := ChannelCache{
		Realm:     testRealm,
		Channels:  testChannels,
		FetchedAt: time.Now().Add(-48 * time.Hour),
	}

	data, err := json.MarshalIndent(cc, "", "  ")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, loadErr := LoadChannels(path, testRealm, 24*time.Hour)
	require.NoError(t, loadErr)
	assert.Nil(t, loaded)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")

	require.NoError(t, os.WriteFile(path, []byte("{{{not json"), 0o644))

	loaded, err := LoadChannels(path, testRealm, 24*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "channels.json")

	require.NoError(t, SaveChannels(path, testRealm, testChannels))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLoadZeroTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")

	require.NoError(t, SaveChannels(path, testRealm, testChannels))

	// 0 TTL means always expired.
	loaded, err := LoadChannels(path, testRealm, 0)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")

	require.NoError(t, SaveChannels(path, testRealm, testChannels))
	require.NoError(t, Clear(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	require.NoError(t, Clear(path))
}
