package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/dedene/narrowlink-cli/internal/channels"
	"github.com/dedene/narrowlink-cli/internal/links"
	"github.com/dedene/narrowlink-cli/internal/narrow"
	"github.com/dedene/narrowlink-cli/internal/outfmt"
	"github.com/dedene/narrowlink-cli/internal/ui"
)

// DecodeCmd decodes a narrow link into the narrow it points at.
type DecodeCmd struct {
	URL string `arg:"" help:"Link to decode"`
}

// decodedLink is the JSON shape of a decoded link.
type decodedLink struct {
	URL         string        `json:"url"`
	Narrow      narrow.Narrow `json:"narrow"`
	Anchor      *int64        `json:"anchor,omitempty"`
	ChannelName string        `json:"channel_name,omitempty"`
	Description string        `json:"description"`
}

// Run executes the decode command.
func (c *DecodeCmd) Run(ctx context.Context, root *RootFlags) error {
	s := newSession(ctx, root)

	u, link, dir, err := resolveLink(ctx, s, c.URL)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	out := describe(u, link, dir)

	return outfmt.Emit(ctx, os.Stdout, out, func(w io.Writer) error {
		_, err := fmt.Fprint(w, ui.RenderFields(out.fields(), colorEnabled(ctx)))
		return err
	})
}

// resolveLink parses raw and decodes it against the session's realm. With no
// realm configured the link's own origin is trusted.
func resolveLink(ctx context.Context, s *session, raw string) (*url.URL, links.Link, *channels.Directory, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, links.Link{}, nil, fmt.Errorf("parsing %q: %w", raw, err)
	}

	if u.Scheme != "" && u.Host != "" {
		s.fallbackRealm = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	}

	realm, err := s.realm()
	if err != nil {
		return u, links.Link{}, nil, err
	}

	if !links.IsNarrowLink(u, realm) {
		return u, links.Link{}, nil, fmt.Errorf("%s: %w", raw, links.ErrNotNarrowLink)
	}

	dir := s.lookup(ctx)

	link, err := links.Resolve(u, realm, dir, s.selfUserID(ctx))
	if err != nil {
		return u, links.Link{}, dir, fmt.Errorf("%s: %w", raw, err)
	}

	return u, link, dir, nil
}

func describe(u *url.URL, link links.Link, dir *channels.Directory) decodedLink {
	out := decodedLink{
		URL:         u.String(),
		Narrow:      link.Narrow,
		Anchor:      link.Anchor,
		Description: link.Narrow.String(),
	}

	if link.Narrow.Kind == narrow.KindChannel || link.Narrow.Kind == narrow.KindTopic {
		if ch, ok := dir.ChannelByID(link.Narrow.ChannelID); ok {
			out.ChannelName = ch.Name
		}
	}

	return out
}

func (d decodedLink) fields() []ui.Field {
	n := d.Narrow
	fields := []ui.Field{{Label: "Kind", Value: string(n.Kind)}}

	switch n.Kind {
	case narrow.KindChannel, narrow.KindTopic:
		ch := strconv.FormatInt(n.ChannelID, 10)
		if d.ChannelName != "" {
			ch += " (" + d.ChannelName + ")"
		}

		fields = append(fields, ui.Field{Label: "Channel", Value: ch})

		if n.Kind == narrow.KindTopic {
			topic := n.Topic
			if topic == "" {
				topic = `""`
			}

			fields = append(fields, ui.Field{Label: "Topic", Value: topic})
		}
	case narrow.KindDirect:
		ids := make([]string, len(n.UserIDs))
		for i, id := range n.UserIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}

		fields = append(fields, ui.Field{Label: "Users", Value: strings.Join(ids, ", ")})
	}

	if d.Anchor != nil {
		fields = append(fields, ui.Field{Label: "Anchor", Value: strconv.FormatInt(*d.Anchor, 10)})
	}

	return fields
}

func colorEnabled(ctx context.Context) bool {
	if u := ui.FromContext(ctx); u != nil {
		return u.Out().ColorEnabled()
	}

	return false
}

// isLinkError reports whether err means "this is not a link we can decode",
// as opposed to a configuration or I/O failure.
func isLinkError(err error) bool {
	return errors.Is(err, links.ErrNotNarrowLink) || errors.Is(err, links.ErrUndecodable)
}
