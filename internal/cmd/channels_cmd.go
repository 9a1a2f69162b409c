package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dedene/narrowlink-cli/internal/channels"
	"github.com/dedene/narrowlink-cli/internal/links"
	"github.com/dedene/narrowlink-cli/internal/outfmt"
	"github.com/dedene/narrowlink-cli/internal/ui"
)

// ChannelsCmd lists channels with the link to each.
type ChannelsCmd struct {
	Filter  string `help:"Only channels whose name or description contains this" name:"filter" short:"F"`
	Refresh bool   `help:"Bypass the channel cache" name:"refresh"`
}

type channelRow struct {
	channels.Channel
	URL string `json:"url"`
}

// Run executes the channels command.
func (c *ChannelsCmd) Run(ctx context.Context, root *RootFlags) error {
	s := newSession(ctx, root)

	realm, err := s.realm()
	if err != nil {
		return err
	}

	dir, err := s.directory(ctx, c.Refresh)
	if err != nil {
		return err
	}

	list := dir.Filter(c.Filter)

	out := make([]channelRow, len(list))
	for i, ch := range list {
		out[i] = channelRow{Channel: ch, URL: links.BuildChannelURL(realm, ch.ID, dir).String()}
	}

	return outfmt.Emit(ctx, os.Stdout, out, func(w io.Writer) error {
		if dir.Len() == 0 {
			warn(ctx, "no channels known; set email and %s, or pass --channels-file", apiKeyEnv)
		}

		rows := make([][]string, 0, len(out))
		for _, r := range out {
			name := r.Name
			if r.InviteOnly {
				name += " (private)"
			}

			rows = append(rows, []string{strconv.FormatInt(r.ID, 10), name, r.URL})
		}

		if _, err := fmt.Fprint(w, ui.RenderTable([]string{"ID", "Name", "Link"}, rows, colorEnabled(ctx))); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w, "\n%d channels\n", len(out))

		return err
	})
}
