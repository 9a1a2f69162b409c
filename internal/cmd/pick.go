package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/dedene/narrowlink-cli/internal/links"
	"github.com/dedene/narrowlink-cli/internal/narrow"
	"github.com/dedene/narrowlink-cli/internal/tui"
)

// ErrNotInteractive is returned by pick when it cannot prompt.
var ErrNotInteractive = errors.New("pick needs an interactive terminal; use 'narrowlink link' instead")

// PickCmd picks a channel (and optionally a topic) in a fuzzy finder.
type PickCmd struct {
	NoTopic bool `help:"Link the channel without asking for a topic" name:"no-topic"`
	Refresh bool `help:"Bypass the channel cache" name:"refresh"`
	Copy    bool `help:"Copy link to clipboard" name:"copy" short:"c"`
	Open    bool `help:"Open link in browser" name:"open" short:"o"`
}

// isInteractive is swappable in tests.
var isInteractive = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
}

// runPicker runs the TUI and returns its final model (swappable in tests).
var runPicker = func(m tui.Model) (tui.Model, error) {
	result, err := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInputTTY()).Run()
	if err != nil {
		return tui.Model{}, fmt.Errorf("interactive picker: %w", err)
	}

	picker, ok := result.(tui.Model)
	if !ok {
		return tui.Model{}, errors.New("unexpected picker result type")
	}

	return picker, nil
}

// Run executes the pick command.
func (c *PickCmd) Run(ctx context.Context, root *RootFlags) error {
	if root.NoInput || !isInteractive() {
		return ErrNotInteractive
	}

	s := newSession(ctx, root)

	realm, err := s.realm()
	if err != nil {
		return err
	}

	dir, err := s.directory(ctx, c.Refresh)
	if err != nil {
		return err
	}

	if dir.Len() == 0 {
		return fmt.Errorf("no channels to pick from; set email and %s, or pass --channels-file", apiKeyEnv)
	}

	picker, err := runPicker(tui.NewPicker(tui.Items(dir.All()), !c.NoTopic))
	if err != nil {
		return err
	}

	if picker.Cancelled() || picker.Selected() == nil {
		return nil
	}

	ch := picker.Selected()

	out := builtLink{
		URL:    links.BuildChannelURL(realm, ch.ID, dir).String(),
		Narrow: narrow.Channel(ch.ID),
	}

	if topic := picker.Topic(); topic != "" {
		out.URL = links.BuildTopicURL(realm, ch.ID, topic, dir).String()
		out.Narrow = narrow.Topic(ch.ID, topic)
	}

	return deliverLink(ctx, s, out, c.Copy, c.Open)
}
