package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/dedene/narrowlink-cli/internal/actions"
	"github.com/dedene/narrowlink-cli/internal/links"
	"github.com/dedene/narrowlink-cli/internal/narrow"
	"github.com/dedene/narrowlink-cli/internal/outfmt"
	"github.com/dedene/narrowlink-cli/internal/ui"
)

// LinkCmd groups the link builders.
type LinkCmd struct {
	Channel LinkChannelCmd `cmd:"" aliases:"stream" help:"Link to a whole channel"`
	Topic   LinkTopicCmd   `cmd:"" help:"Link to a topic in a channel"`
	DM      LinkDMCmd      `cmd:"" name:"dm" aliases:"pm" help:"Link to a direct-message conversation"`
	Message LinkMessageCmd `cmd:"" help:"Link to a message in its conversation"`
}

// LinkOutput holds the flags every link builder shares.
type LinkOutput struct {
	Near int64 `help:"Anchor the link at this message ID" name:"near"`
	Copy bool  `help:"Copy link to clipboard" name:"copy" short:"c"`
	Open bool  `help:"Open link in browser" name:"open" short:"o"`
}

type builtLink struct {
	URL    string        `json:"url"`
	Narrow narrow.Narrow `json:"narrow"`
	Anchor *int64        `json:"anchor,omitempty"`
}

// emit anchors u at --near when given, then delivers it.
func (o LinkOutput) emit(ctx context.Context, s *session, u *url.URL, n narrow.Narrow) error {
	out := builtLink{Narrow: n}

	if o.Near > 0 {
		u = links.WithNear(u, o.Near)
		out.Anchor = &o.Near
	}

	out.URL = u.String()

	return deliverLink(ctx, s, out, o.Copy, o.Open)
}

// deliverLink prints the link and runs the requested side effects. Flags win
// over the auto_copy and auto_open config keys; failed side effects are
// warnings.
func deliverLink(ctx context.Context, s *session, out builtLink, copyFlag, openFlag bool) error {
	if err := outfmt.Emit(ctx, os.Stdout, out, func(w io.Writer) error {
		return outfmt.Lines(w, out.URL)
	}); err != nil {
		return err
	}

	targets := actions.Targets{
		Copy: copyFlag || (s.cfg.AutoCopy != nil && *s.cfg.AutoCopy),
		Open: openFlag || (s.cfg.AutoOpen != nil && *s.cfg.AutoOpen),
	}

	if err := actions.Deliver(out.URL, targets); err != nil {
		warn(ctx, "%v", err)
		return nil
	}

	switch {
	case targets.Copy && targets.Open:
		status(ctx, ui.RoleSuccess, "Copied to clipboard and opened in browser")
	case targets.Copy:
		status(ctx, ui.RoleSuccess, "Copied to clipboard")
	case targets.Open:
		status(ctx, ui.RoleSuccess, "Opened in browser")
	}

	return nil
}

// LinkChannelCmd links to a channel.
type LinkChannelCmd struct {
	Channel string `arg:"" help:"Channel name or ID"`
	LinkOutput `embed:""`
}

// Run executes the link channel command.
func (c *LinkChannelCmd) Run(ctx context.Context, root *RootFlags) error {
	s := newSession(ctx, root)

	realm, err := s.realm()
	if err != nil {
		return err
	}

	dir := s.lookup(ctx)

	ch, err := dir.Resolve(c.Channel)
	if err != nil {
		return err
	}

	return c.emit(ctx, s, links.BuildChannelURL(realm, ch.ID, dir), narrow.Channel(ch.ID))
}

// LinkTopicCmd links to a topic.
type LinkTopicCmd struct {
	Channel string `arg:"" help:"Channel name or ID"`
	Topic   string `arg:"" help:"Topic name"`
	LinkOutput `embed:""`
}

// Run executes the link topic command.
func (c *LinkTopicCmd) Run(ctx context.Context, root *RootFlags) error {
	s := newSession(ctx, root)

	realm, err := s.realm()
	if err != nil {
		return err
	}

	dir := s.lookup(ctx)

	ch, err := dir.Resolve(c.Channel)
	if err != nil {
		return err
	}

	return c.emit(ctx, s, links.BuildTopicURL(realm, ch.ID, c.Topic, dir), narrow.Topic(ch.ID, c.Topic))
}

// LinkDMCmd links to a direct-message conversation.
type LinkDMCmd struct {
	Users        []int64 `arg:"" help:"User IDs of the other participants (yourself is added)"`
	FeatureLevel int     `help:"Server feature level to encode for (-1 = config, then server)" name:"feature-level" default:"-1"`
	LinkOutput `embed:""`
}

// Run executes the link dm command.
func (c *LinkDMCmd) Run(ctx context.Context, root *RootFlags) error {
	s := newSession(ctx, root)

	realm, err := s.realm()
	if err != nil {
		return err
	}

	for _, id := range c.Users {
		if id <= 0 {
			return fmt.Errorf("%w: %d", links.ErrBadUserID, id)
		}
	}

	self := s.selfUserID(ctx)

	ids := slices.Clone(c.Users)
	if self > 0 {
		ids = append(ids, self)
	}

	msg := links.Message{Type: links.MessageTypePrivate}
	for _, id := range ids {
		msg.Recipients = append(msg.Recipients, links.Recipient{ID: id})
	}

	n, err := links.MessageNarrow(msg, self)
	if err != nil {
		return err
	}

	u := links.BuildDirectConversationURL(realm, msg, s.featureLevel(ctx, c.FeatureLevel))

	return c.emit(ctx, s, u, n)
}

// LinkMessageCmd links to a message, fetched from the server or read from a
// JSON file.
type LinkMessageCmd struct {
	ID           int64  `arg:"" optional:"" help:"Message ID to fetch from the server"`
	File         string `help:"Read the message JSON from a file ('-' for stdin)" name:"file" short:"f"`
	FeatureLevel int    `help:"Server feature level to encode for (-1 = config, then server)" name:"feature-level" default:"-1"`
	Copy         bool   `help:"Copy link to clipboard" name:"copy" short:"c"`
	Open         bool   `help:"Open link in browser" name:"open" short:"o"`
}

// Run executes the link message command.
func (c *LinkMessageCmd) Run(ctx context.Context, root *RootFlags) error {
	s := newSession(ctx, root)

	realm, err := s.realm()
	if err != nil {
		return err
	}

	msg, err := c.message(ctx, s)
	if err != nil {
		return err
	}

	self := s.selfUserID(ctx)

	n, err := links.MessageNarrow(*msg, self)
	if err != nil {
		return err
	}

	u := links.BuildMessageURL(realm, *msg, s.lookup(ctx), s.featureLevel(ctx, c.FeatureLevel))

	return deliverLink(ctx, s, builtLink{URL: u.String(), Narrow: n, Anchor: &msg.ID}, c.Copy, c.Open)
}

func (c *LinkMessageCmd) message(ctx context.Context, s *session) (*links.Message, error) {
	switch {
	case c.File != "" && c.ID != 0:
		return nil, errors.New("give either a message ID or --file, not both")
	case c.File != "":
		return readMessageFile(c.File)
	case c.ID > 0:
		if s.client == nil || !s.client.Authenticated() {
			return nil, fmt.Errorf("fetching message %d needs credentials: set email and %s, or use --file", c.ID, apiKeyEnv)
		}

		return s.client.GetMessage(ctx, c.ID)
	default:
		return nil, errors.New("give a message ID or --file")
	}
}

// readMessageFile reads a message as the server returns it, either bare or
// wrapped in {"message": ...}.
func readMessageFile(path string) (*links.Message, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path is a user-provided flag
	}

	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}

	var wrapped struct {
		Message *links.Message `json:"message"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Message != nil {
		return wrapped.Message, nil
	}

	var msg links.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	if strings.TrimSpace(msg.Type) == "" {
		return nil, errors.New("parsing message: missing \"type\"")
	}

	return &msg, nil
}
