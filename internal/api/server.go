package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dedene/narrowlink-cli/internal/channels"
	"github.com/dedene/narrowlink-cli/internal/links"
)

// ServerSettings fetches the server's public settings. It needs no
// credentials and is how the feature level is discovered.
func (c *Client) ServerSettings(ctx context.Context) (*ServerSettings, error) {
	resp, err := c.Get(ctx, "/server_settings")
	if err != nil {
		return nil, fmt.Errorf("fetching server settings: %w", err)
	}
	defer resp.Body.Close()

	var out ServerSettings
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// OwnUser returns the authenticated user.
func (c *Client) OwnUser(ctx context.Context) (*User, error) {
	resp, err := c.Get(ctx, "/users/me")
	if err != nil {
		return nil, fmt.Errorf("fetching own user: %w", err)
	}
	defer resp.Body.Close()

	var out User
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ListChannels returns the channels visible to the authenticated user.
func (c *Client) ListChannels(ctx context.Context) ([]channels.Channel, error) {
	resp, err := c.Get(ctx, "/streams")
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	defer resp.Body.Close()

	var out channelsResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}

	return out.Streams, nil
}

// GetMessage fetches a single message by ID.
func (c *Client) GetMessage(ctx context.Context, id int64) (*links.Message, error) {
	resp, err := c.Get(ctx, "/messages/"+strconv.FormatInt(id, 10)+"?apply_markdown=false")
	if err != nil {
		return nil, fmt.Errorf("fetching message %d: %w", id, err)
	}
	defer resp.Body.Close()

	var out messageResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}

	return &out.Message, nil
}
