package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dedene/narrowlink-cli/internal/actions"
	"github.com/dedene/narrowlink-cli/internal/api"
	"github.com/dedene/narrowlink-cli/internal/config"
	"github.com/dedene/narrowlink-cli/internal/outfmt"
)

const testRealm = "https://chat.example.com"

// captureStdout runs fn while capturing os.Stdout and returns the output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	origStdout := os.Stdout
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	buf, _ := io.ReadAll(r)
	_ = r.Close()

	return string(buf)
}

// isolate points config and cache at fresh temp dirs.
func isolate(t *testing.T) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

// testCtx returns a context carrying cfg and the output mode, with no API client.
func testCtx(t *testing.T, jsonMode bool, cfg *config.Config) context.Context {
	t.Helper()

	isolate(t)

	if cfg == nil {
		cfg = &config.Config{}
	}

	ctx := outfmt.WithMode(context.Background(), outfmt.Mode{JSON: jsonMode})

	return config.WithConfig(ctx, cfg)
}

// fakeServer serves the subset of the REST API the commands use and counts
// requests per path.
type fakeServer struct {
	*httptest.Server
	hits map[string]*atomic.Int32
}

const (
	settingsBody = `{"result":"success","msg":"","zulip_feature_level":185}`
	ownUserBody  = `{"result":"success","msg":"","user_id":1,"email":"me@example.com"}`
	streamsBody  = `{"result":"success","msg":"","streams":[
		{"stream_id":5,"name":"general"},
		{"stream_id":42,"name":"mobile team","description":"apps","invite_only":true}
	]}`
	channelMessageBody = `{"result":"success","msg":"","message":{
		"id":1234,"type":"stream","stream_id":42,"subject":"release 2.0","display_recipient":"mobile team"}}`
	directMessageBody = `{"result":"success","msg":"","message":{
		"id":77,"type":"private","display_recipient":[{"id":1},{"id":3},{"id":9}]}}`
)

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	routes := map[string]string{
		"/api/v1/server_settings": settingsBody,
		"/api/v1/users/me":        ownUserBody,
		"/api/v1/streams":         streamsBody,
		"/api/v1/messages/1234":   channelMessageBody,
		"/api/v1/messages/77":     directMessageBody,
	}

	fs := &fakeServer{hits: map[string]*atomic.Int32{}}
	for path := range routes {
		fs.hits[path] = &atomic.Int32{}
	}

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"error","msg":"Not found","code":"NOT_FOUND"}`)
			return
		}

		fs.hits[r.URL.Path].Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(fs.Close)

	return fs
}

func (fs *fakeServer) count(path string) int32 {
	return fs.hits["/api/v1"+path].Load()
}

// serverCtx returns a context wired to fs with credentials, and root flags
// naming fs as the realm.
func serverCtx(t *testing.T, fs *fakeServer, jsonMode bool, cfg *config.Config) (context.Context, *RootFlags) {
	t.Helper()

	ctx := testCtx(t, jsonMode, cfg)

	client, err := api.NewClient(api.ClientOptions{
		Realm:     fs.URL,
		Email:     "me@example.com",
		APIKey:    "key",
		UserAgent: "narrowlink-cli/test",
	})
	require.NoError(t, err)

	return api.WithClient(ctx, client), &RootFlags{Realm: fs.URL}
}

// stubActions records clipboard and browser calls for the test.
func stubActions(t *testing.T) (copied, opened *[]string) {
	t.Helper()

	origWrite, origUnsupported, origOpen := actions.ClipboardWrite, actions.ClipboardUnsupported, actions.BrowserOpen
	t.Cleanup(func() {
		actions.ClipboardWrite, actions.ClipboardUnsupported, actions.BrowserOpen = origWrite, origUnsupported, origOpen
	})

	copied, opened = &[]string{}, &[]string{}
	actions.ClipboardUnsupported = false
	actions.ClipboardWrite = func(text string) error {
		*copied = append(*copied, text)
		return nil
	}
	actions.BrowserOpen = func(u string) error {
		*opened = append(*opened, u)
		return nil
	}

	return copied, opened
}

// writeChannelsFile writes a channel list and returns its path.
func writeChannelsFile(t *testing.T) string {
	t.Helper()

	path := t.TempDir() + "/channels.json"
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"stream_id": 5, "name": "general"},
		{"stream_id": 42, "name": "mobile team"},
		{"stream_id": 7, "name": "2024 plans"}
	]`), 0o644))

	return path
}
