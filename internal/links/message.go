package links

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dedene/narrowlink-cli/internal/narrow"
)

// Message types as the server reports them.
const (
	MessageTypeStream  = "stream"
	MessageTypePrivate = "private"
)

// Recipient is one participant of a direct message.
type Recipient struct {
	ID       int64  `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// Message carries the fields of a server message needed to link to it.
//
// The server's display_recipient field holds the channel name for channel
// messages and the participant list for direct messages; UnmarshalJSON
// splits it into ChannelName and Recipients.
type Message struct {
	ID          int64       `json:"id"`
	Type        string      `json:"type"`
	StreamID    int64       `json:"stream_id,omitempty"`
	Subject     string      `json:"subject,omitempty"`
	ChannelName string      `json:"-"`
	Recipients  []Recipient `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message

	var wire struct {
		plain
		DisplayRecipient json.RawMessage `json:"display_recipient"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*m = Message(wire.plain)

	raw := bytes.TrimSpace(wire.DisplayRecipient)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &m.ChannelName); err != nil {
			return fmt.Errorf("display_recipient: %w", err)
		}
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &m.Recipients); err != nil {
			return fmt.Errorf("display_recipient: %w", err)
		}
	default:
		return fmt.Errorf("display_recipient: unexpected JSON %s", raw)
	}

	return nil
}

// RecipientIDs returns the participants' user IDs, ascending and without
// duplicates. For direct messages the server includes the current user.
func (m Message) RecipientIDs() []int64 {
	ids := make([]int64, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		ids = append(ids, r.ID)
	}

	slices.Sort(ids)

	return slices.Compact(ids)
}

// MessageNarrow returns the narrow of the conversation m belongs to.
func MessageNarrow(m Message, selfUserID int64) (narrow.Narrow, error) {
	switch m.Type {
	case MessageTypeStream:
		return narrow.Topic(m.StreamID, m.Subject), nil
	case MessageTypePrivate:
		return narrow.Direct(m.RecipientIDs(), selfUserID)
	default:
		return narrow.Narrow{}, fmt.Errorf("unknown message type %q", m.Type)
	}
}
