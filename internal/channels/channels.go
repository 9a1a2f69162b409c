// Package channels provides the read-only channel directory narrow links are
// resolved against.
package channels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	goslug "github.com/gosimple/slug"
)

// ErrNotFound is returned by Resolve when no channel matches.
var ErrNotFound = errors.New("channel not found")

// Channel is a channel as the server describes it.
type Channel struct {
	ID          int64  `json:"stream_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InviteOnly  bool   `json:"invite_only,omitempty"`
}

// Slug returns the lower-kebab form of the channel name used in links, or ""
// when nothing of the name survives slugification.
func (c Channel) Slug() string {
	return goslug.Make(c.Name)
}

// Directory indexes channels by ID and by exact name. It is immutable once
// built and safe for concurrent use.
type Directory struct {
	byID   map[int64]Channel
	byName map[string]Channel
}

// NewDirectory builds a Directory. When two channels share an ID or a name the
// later one wins.
func NewDirectory(chans []Channel) *Directory {
	d := &Directory{
		byID:   make(map[int64]Channel, len(chans)),
		byName: make(map[string]Channel, len(chans)),
	}

	for _, c := range chans {
		d.byID[c.ID] = c
		d.byName[c.Name] = c
	}

	return d
}

// ChannelByID looks up a channel by ID. A nil Directory is empty.
func (d *Directory) ChannelByID(id int64) (Channel, bool) {
	if d == nil {
		return Channel{}, false
	}

	c, ok := d.byID[id]

	return c, ok
}

// ChannelByName looks up a channel by its exact name.
func (d *Directory) ChannelByName(name string) (Channel, bool) {
	if d == nil {
		return Channel{}, false
	}

	c, ok := d.byName[name]

	return c, ok
}

// Len returns the number of distinct channel IDs.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}

	return len(d.byID)
}

// All returns every channel sorted by name, then ID.
func (d *Directory) All() []Channel {
	if d == nil {
		return nil
	}

	out := make([]Channel, 0, len(d.byID))
	for _, c := range d.byID {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}

		return out[i].ID < out[j].ID
	})

	return out
}

// Resolve finds a channel from user input: an exact name first, then a
// numeric ID. A numeric ref unknown to the directory still resolves to a
// channel carrying only that ID, since the caller may not see every channel.
func (d *Directory) Resolve(ref string) (Channel, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Channel{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	if c, ok := d.ChannelByName(strings.TrimPrefix(ref, "#")); ok {
		return c, nil
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id < 0 {
		return Channel{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}

	if c, ok := d.ChannelByID(id); ok {
		return c, nil
	}

	return Channel{ID: id}, nil
}

// Filter returns the channels whose name or description contains query,
// case-insensitively, in All order.
func (d *Directory) Filter(query string) []Channel {
	all := d.All()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}

	out := all[:0]
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}

	return out
}

// Parse decodes a channel list, accepting either a bare JSON array or the
// server's {"streams": [...]} response body.
func Parse(data []byte) ([]Channel, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var chans []Channel
		if err := json.Unmarshal(data, &chans); err != nil {
			return nil, fmt.Errorf("parsing channel list: %w", err)
		}

		return chans, nil
	}

	var body struct {
		Streams []Channel `json:"streams"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parsing channel list: %w", err)
	}

	return body.Streams, nil
}

// LoadFile reads a channel list from a JSON file.
func LoadFile(path string) ([]Channel, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a user-provided flag
	if err != nil {
		return nil, fmt.Errorf("reading channels file: %w", err)
	}

	return Parse(data)
}
