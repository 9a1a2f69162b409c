// Package tui provides the interactive Bubbletea channel picker used to build
// links without remembering channel IDs.
package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/list"

	"github.com/dedene/narrowlink-cli/internal/channels"
)

// ChannelItem wraps channels.Channel to implement the bubbles list.DefaultItem
// interface.
type ChannelItem struct {
	channel channels.Channel
}

// NewChannelItem creates a ChannelItem.
func NewChannelItem(c channels.Channel) ChannelItem {
	return ChannelItem{channel: c}
}

// Title returns the channel name, marked when the channel is private.
func (i ChannelItem) Title() string {
	if i.channel.InviteOnly {
		return i.channel.Name + " (private)"
	}

	return i.channel.Name
}

// Description returns the channel ID and description.
func (i ChannelItem) Description() string {
	d := "#" + strconv.FormatInt(i.channel.ID, 10)
	if i.channel.Description != "" {
		d += " | " + i.channel.Description
	}

	return d
}

// FilterValue matches on name, ID and description.
func (i ChannelItem) FilterValue() string {
	return i.channel.Name + " " + strconv.FormatInt(i.channel.ID, 10) + " " + i.channel.Description
}

// Channel returns the wrapped channel.
func (i ChannelItem) Channel() channels.Channel { return i.channel }

// Items converts a channel list into picker items.
func Items(chans []channels.Channel) []list.Item {
	items := make([]list.Item, len(chans))
	for i, c := range chans {
		items[i] = NewChannelItem(c)
	}

	return items
}
