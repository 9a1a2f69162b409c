package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/dedene/narrowlink-cli/internal/api"
	"github.com/dedene/narrowlink-cli/internal/cache"
	"github.com/dedene/narrowlink-cli/internal/channels"
	"github.com/dedene/narrowlink-cli/internal/config"
	"github.com/dedene/narrowlink-cli/internal/ui"
)

// unsetFeatureLevel is the --feature-level default meaning "not given".
const unsetFeatureLevel = -1

// effectiveRealm returns the server origin: --realm, then config.
func effectiveRealm(root *RootFlags, cfg *config.Config) (*url.URL, error) {
	if root != nil && root.Realm != "" {
		return config.ParseRealm(root.Realm)
	}

	return cfg.RealmURL()
}

// session bundles what a command needs to talk about one server. Values are
// resolved flag first, then config, then the server, then a fallback.
type session struct {
	root   *RootFlags
	cfg    *config.Config
	client *api.Client

	// fallbackRealm is used when neither flag nor config names a realm.
	fallbackRealm *url.URL
}

func newSession(ctx context.Context, root *RootFlags) *session {
	if root == nil {
		root = &RootFlags{}
	}

	cfg := config.FromContext(ctx)
	if cfg == nil {
		cfg = &config.Config{}
	}

	s := &session{root: root, cfg: cfg}
	if !root.Offline {
		s.client = api.ClientFromContext(ctx)
	}

	return s
}

func (s *session) realm() (*url.URL, error) {
	realm, err := effectiveRealm(s.root, s.cfg)
	if errors.Is(err, config.ErrNoRealm) && s.fallbackRealm != nil {
		return s.fallbackRealm, nil
	}

	return realm, err
}

// realmKey identifies the realm in the channel cache.
func realmKey(realm *url.URL) string {
	return realm.Scheme + "://" + realm.Host
}

// directory loads the channel list from, in order: the channels file, the
// cache, the server. With no source at all it returns an empty directory;
// links then carry bare channel IDs.
func (s *session) directory(ctx context.Context, refresh bool) (*channels.Directory, error) {
	path := s.root.ChannelsFile
	if path == "" {
		path = s.cfg.ChannelsFile
	}

	if path != "" {
		chans, err := channels.LoadFile(path)
		if err != nil {
			return nil, err
		}

		slog.Debug("loaded channels from file", "path", path, "count", len(chans))

		return channels.NewDirectory(chans), nil
	}

	realm, err := s.realm()
	if err != nil {
		return nil, err
	}

	cachePath, cacheErr := config.CachePath()
	if cacheErr != nil {
		slog.Debug("no cache path", "error", cacheErr)
	}

	if !refresh && cachePath != "" {
		cached, err := cache.LoadChannels(cachePath, realmKey(realm), s.cfg.CacheTTLDuration())
		if err != nil {
			slog.Debug("cache load error", "error", err)
		}

		if cached != nil {
			slog.Debug("using cached channels", "count", len(cached))

			return channels.NewDirectory(cached), nil
		}
	}

	if s.client == nil || !s.client.Authenticated() {
		slog.Debug("no channel source; channel names unavailable")

		return channels.NewDirectory(nil), nil
	}

	chans, err := s.client.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	if cachePath != "" {
		if err := cache.SaveChannels(cachePath, realmKey(realm), chans); err != nil {
			slog.Debug("cache save error", "error", err)
		}
	}

	return channels.NewDirectory(chans), nil
}

// lookup is directory for commands that can work without channel names:
// failures are reported as a warning and an empty directory is returned.
func (s *session) lookup(ctx context.Context) *channels.Directory {
	dir, err := s.directory(ctx, false)
	if errors.Is(err, config.ErrNoRealm) {
		return channels.NewDirectory(nil)
	}

	if err != nil {
		warn(ctx, "channel names unavailable: %v", err)

		return channels.NewDirectory(nil)
	}

	return dir
}

// selfUserID returns the current user's ID, or 0 when it cannot be known.
func (s *session) selfUserID(ctx context.Context) int64 {
	if s.root.SelfID > 0 {
		return s.root.SelfID
	}

	if s.cfg.SelfUserID != nil {
		return *s.cfg.SelfUserID
	}

	if s.client == nil || !s.client.Authenticated() {
		return 0
	}

	me, err := s.client.OwnUser(ctx)
	if err != nil {
		warn(ctx, "could not determine your user ID: %v", err)

		return 0
	}

	return me.ID
}

// featureLevel returns the server feature level that decides link
// vocabulary. Unknown servers are treated as level 0, whose links every
// server still accepts.
func (s *session) featureLevel(ctx context.Context, flag int) int {
	if flag > unsetFeatureLevel {
		return flag
	}

	if s.cfg.FeatureLevel != nil {
		return *s.cfg.FeatureLevel
	}

	if s.client == nil {
		return 0
	}

	settings, err := s.client.ServerSettings(ctx)
	if err != nil {
		slog.Debug("feature level unavailable", "error", err)

		return 0
	}

	return settings.FeatureLevel
}

// warn prints a non-fatal warning to stderr.
func warn(ctx context.Context, format string, args ...any) {
	if u := ui.FromContext(ctx); u != nil {
		u.Err().Warnf(format, args...)
		return
	}

	slog.Warn(fmt.Sprintf(format, args...))
}

// status prints a styled status line to stderr. Without a UI (tests, library
// use) it is dropped; JSON mode never sees it on stdout.
func status(ctx context.Context, role ui.Role, format string, args ...any) {
	if u := ui.FromContext(ctx); u != nil {
		u.Err().Linef(role, format, args...)
	}
}
