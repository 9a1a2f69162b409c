package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dedene/narrowlink-cli/internal/actions"
	"github.com/dedene/narrowlink-cli/internal/links"
	"github.com/dedene/narrowlink-cli/internal/outfmt"
	"github.com/dedene/narrowlink-cli/internal/ui"
)

// OpenCmd opens a link in the browser. Narrow links are first re-encoded in
// the server's current vocabulary; anything else is opened unchanged.
type OpenCmd struct {
	URL          string `arg:"" help:"Link to open"`
	FeatureLevel int    `help:"Server feature level to encode for (-1 = config, then server)" name:"feature-level" default:"-1"`
	DryRun       bool   `help:"Print the link that would be opened" name:"dry-run" short:"n"`
}

type openResult struct {
	URL       string      `json:"url"`
	Narrow    *links.Link `json:"narrow,omitempty"`
	Canonical bool        `json:"canonical"`
}

// Run executes the open command.
func (c *OpenCmd) Run(ctx context.Context, root *RootFlags) error {
	s := newSession(ctx, root)
	res := openResult{URL: c.URL}

	_, link, dir, err := resolveLink(ctx, s, c.URL)

	switch {
	case err == nil:
		realm, _ := s.realm()

		u, buildErr := links.BuildNarrowURL(realm, link.Narrow, dir, s.selfUserID(ctx), s.featureLevel(ctx, c.FeatureLevel))
		if buildErr != nil {
			return buildErr
		}

		if link.Anchor != nil {
			u = links.WithNear(u, *link.Anchor)
		}

		res.URL = u.String()
		res.Narrow = &link
		res.Canonical = true
	case isLinkError(err):
		slog.Debug("opening link unchanged", "reason", err)
		status(ctx, ui.RoleMuted, "not a narrow link on this server; opening it unchanged")
	default:
		return err
	}

	if !c.DryRun {
		if err := actions.OpenInBrowser(res.URL); err != nil {
			return fmt.Errorf("opening browser: %w", err)
		}
	}

	return outfmt.Emit(ctx, os.Stdout, res, func(w io.Writer) error {
		return outfmt.Lines(w, res.URL)
	})
}
