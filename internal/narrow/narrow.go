// Package narrow defines the filter describing which messages a
// conversation view shows.
package narrow

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind tags the variant a Narrow holds.
type Kind string

const (
	KindHome      Kind = "home"
	KindChannel   Kind = "channel"
	KindTopic     Kind = "topic"
	KindDirect    Kind = "dm"
	KindStarred   Kind = "starred"
	KindMentioned Kind = "mentioned"
	KindAllDirect Kind = "all-dm"
)

// ErrNoRecipients is returned when a direct-message narrow is built from an
// empty user list.
var ErrNoRecipients = errors.New("direct-message narrow needs at least one user")

// Narrow is a value type; build it with the constructors below so the
// per-kind invariants hold.
//
// For KindDirect, UserIDs is sorted, duplicate-free and excludes the current
// user, except for the self-conversation where it is exactly the current
// user's ID.
type Narrow struct {
	Kind      Kind    `json:"kind"`
	ChannelID int64   `json:"channel_id,omitempty"`
	Topic     string  `json:"topic,omitempty"`
	UserIDs   []int64 `json:"user_ids,omitempty"`
}

// Home is the combined feed.
func Home() Narrow { return Narrow{Kind: KindHome} }

// Channel narrows to every topic of a channel.
func Channel(channelID int64) Narrow {
	return Narrow{Kind: KindChannel, ChannelID: channelID}
}

// Topic narrows to a single topic within a channel.
func Topic(channelID int64, topic string) Narrow {
	return Narrow{Kind: KindTopic, ChannelID: channelID, Topic: topic}
}

// Starred is the starred-messages view.
func Starred() Narrow { return Narrow{Kind: KindStarred} }

// Mentioned is the mentions view.
func Mentioned() Narrow { return Narrow{Kind: KindMentioned} }

// AllDirect is the view of every direct message.
func AllDirect() Narrow { return Narrow{Kind: KindAllDirect} }

// Direct narrows to the conversation among userIDs and the current user.
// userIDs may or may not include selfID; order and duplicates are ignored.
func Direct(userIDs []int64, selfID int64) (Narrow, error) {
	if len(userIDs) == 0 {
		return Narrow{}, ErrNoRecipients
	}

	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	others := slices.DeleteFunc(slices.Clone(ids), func(id int64) bool { return id == selfID })
	if len(others) == 0 {
		// Only the current user: the self-conversation.
		others = []int64{selfID}
	}

	return Narrow{Kind: KindDirect, UserIDs: others}, nil
}

// Equal reports whether n and o select the same messages.
func (n Narrow) Equal(o Narrow) bool {
	return n.Kind == o.Kind &&
		n.ChannelID == o.ChannelID &&
		n.Topic == o.Topic &&
		slices.Equal(n.UserIDs, o.UserIDs)
}

// Key returns a string that is equal for two narrows exactly when Equal is.
func (n Narrow) Key() string {
	switch n.Kind {
	case KindChannel:
		return "channel:" + strconv.FormatInt(n.ChannelID, 10)
	case KindTopic:
		return "topic:" + strconv.FormatInt(n.ChannelID, 10) + ":" + n.Topic
	case KindDirect:
		return "dm:" + joinIDs(n.UserIDs)
	default:
		return string(n.Kind)
	}
}

// String describes the narrow for humans.
func (n Narrow) String() string {
	switch n.Kind {
	case KindHome:
		return "combined feed"
	case KindChannel:
		return fmt.Sprintf("channel %d", n.ChannelID)
	case KindTopic:
		return fmt.Sprintf("channel %d > %s", n.ChannelID, n.Topic)
	case KindDirect:
		return "direct messages with " + joinIDs(n.UserIDs)
	case KindStarred:
		return "starred messages"
	case KindMentioned:
		return "mentions"
	case KindAllDirect:
		return "all direct messages"
	default:
		return string(n.Kind)
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return strings.Join(parts, ",")
}
