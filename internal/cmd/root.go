package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dedene/narrowlink-cli/internal/api"
	"github.com/dedene/narrowlink-cli/internal/config"
	"github.com/dedene/narrowlink-cli/internal/outfmt"
	"github.com/dedene/narrowlink-cli/internal/ui"
)

// apiKeyEnv names the environment variable holding the API key. The key is
// never stored in the config file.
const apiKeyEnv = "NARROWLINK_API_KEY"

// RootFlags are global flags available to all commands.
type RootFlags struct {
	Color        string `help:"Color output: auto|always|never" default:"auto" enum:"auto,always,never"`
	JSON         bool   `help:"JSON output" default:"false"`
	Verbose      bool   `help:"Verbose logging" default:"false"`
	NoInput      bool   `help:"Never prompt; fail instead" name:"no-input" default:"false"`
	Realm        string `help:"Server URL, e.g. https://chat.example.com (overrides config)" env:"NARROWLINK_REALM"`
	Email        string `help:"Account email for API calls (overrides config)" env:"NARROWLINK_EMAIL"`
	ChannelsFile string `help:"Read the channel list from a JSON file instead of the server" name:"channels-file" type:"path"`
	SelfID       int64  `help:"Your user ID; 0 asks config, then the server" name:"self-id" default:"0"`
	Offline      bool   `help:"Never contact the server" default:"false"`
}

// CLI is the top-level Kong command struct.
type CLI struct {
	RootFlags `embed:""`

	Version    kong.VersionFlag `help:"Print version and exit"`
	VersionCmd VersionCmd       `cmd:"" name:"version" help:"Print version info"`
	Decode     DecodeCmd        `cmd:"" name:"decode" aliases:"d" help:"Decode a narrow link"`
	Open       OpenCmd          `cmd:"" name:"open" help:"Open a link, normalizing narrow links first"`
	Link       LinkCmd          `cmd:"" name:"link" aliases:"l" help:"Build a narrow link"`
	Channels   ChannelsCmd      `cmd:"" name:"channels" aliases:"ls" help:"List channels and their links"`
	Pick       PickCmd          `cmd:"" name:"pick" help:"Pick a channel interactively and print its link"`
	Config     ConfigCmd        `cmd:"" name:"config" help:"Manage configuration"`
}

// Execute parses CLI args, sets up context, and runs the matched command.
func Execute(args []string) (err error) {
	cli := &CLI{}
	parser, err := kong.New(
		cli,
		kong.Name("narrowlink"),
		kong.Description("Build and decode chat narrow links from the terminal"),
		kong.ConfigureHelp(helpOptions()),
		kong.Help(helpPrinter),
		kong.Vars{"version": VersionString()},
		kong.Writers(os.Stdout, os.Stderr),
		kong.Exit(func(code int) { panic(exitPanic{code: code}) }),
	)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if ep, ok := r.(exitPanic); ok {
				if ep.code == 0 {
					err = nil
					return
				}
				err = &ExitError{Code: ep.code, Err: errors.New("exited")}
				return
			}
			panic(r)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return &ExitError{Code: ExitUsage, Err: err}
	}

	logLevel := slog.LevelWarn
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ctx := outfmt.WithMode(context.Background(), outfmt.Mode{JSON: cli.JSON})

	// UI printer -- force no color in JSON mode
	uiColor := cli.Color
	if outfmt.IsJSON(ctx) {
		uiColor = "never"
	}
	u, uiErr := ui.New(ui.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Color:  uiColor,
	})
	if uiErr != nil {
		return uiErr
	}
	ctx = ui.WithUI(ctx, u)

	cfgPath, _ := config.ConfigPath()
	cfg, cfgErr := config.Load(cfgPath)
	if cfgErr != nil {
		slog.Warn("loading config", "error", cfgErr)
		cfg = &config.Config{}
	}
	ctx = config.WithConfig(ctx, cfg)

	if client := newClient(&cli.RootFlags, cfg); client != nil {
		ctx = api.WithClient(ctx, client)
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(&cli.RootFlags)

	return kctx.Run()
}

// newClient builds the API client for the effective realm, or returns nil
// when offline or no realm is known. Commands then work from config and the
// channel cache alone.
func newClient(root *RootFlags, cfg *config.Config) *api.Client {
	if root.Offline {
		return nil
	}

	realm, err := effectiveRealm(root, cfg)
	if err != nil {
		slog.Debug("no api client", "reason", err)
		return nil
	}

	email := root.Email
	if email == "" {
		email = cfg.Email
	}

	client, err := api.NewClient(api.ClientOptions{
		Realm:     realm.String(),
		Email:     email,
		APIKey:    os.Getenv(apiKeyEnv),
		Verbose:   root.Verbose,
		UserAgent: "narrowlink-cli/" + version,
	})
	if err != nil {
		slog.Debug("no api client", "reason", err)
		return nil
	}

	return client
}
