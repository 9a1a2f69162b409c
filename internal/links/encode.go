package links

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dedene/narrowlink-cli/internal/channels"
	"github.com/dedene/narrowlink-cli/internal/encoding"
	"github.com/dedene/narrowlink-cli/internal/narrow"
)

// DMOperatorFeatureLevel is the first server feature level that writes "dm"
// instead of "pm-with" in direct-message links.
const DMOperatorFeatureLevel = 177

// BuildChannelURL returns the link to a whole channel.
func BuildChannelURL(realm *url.URL, channelID int64, lookup ChannelLookup) *url.URL {
	return narrowURL(realm, fragmentPrefix+"stream/"+channelSlug(channelID, lookup))
}

// BuildTopicURL returns the link to a topic within a channel.
func BuildTopicURL(realm *url.URL, channelID int64, topic string, lookup ChannelLookup) *url.URL {
	return narrowURL(realm, fragmentPrefix+"stream/"+channelSlug(channelID, lookup)+
		"/topic/"+encoding.EncodeComponent(topic))
}

// BuildDirectConversationURL returns the link to the direct-message
// conversation msg belongs to, in the vocabulary of a server at
// featureLevel.
func BuildDirectConversationURL(realm *url.URL, msg Message, featureLevel int) *url.URL {
	ids := msg.RecipientIDs()

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	op, suffix := "pm-with", "pm"
	if featureLevel >= DMOperatorFeatureLevel {
		op, suffix = "dm", "dm"
	}

	if len(ids) >= 3 {
		suffix = "group"
	}

	return narrowURL(realm, fragmentPrefix+op+"/"+strings.Join(parts, ",")+"-"+suffix)
}

// BuildMessageURL returns the link to msg within its conversation.
func BuildMessageURL(realm *url.URL, msg Message, lookup ChannelLookup, featureLevel int) *url.URL {
	var u *url.URL
	if msg.Type == MessageTypeStream {
		u = BuildTopicURL(realm, msg.StreamID, msg.Subject, lookup)
	} else {
		u = BuildDirectConversationURL(realm, msg, featureLevel)
	}

	return WithNear(u, msg.ID)
}

// BuildNarrowURL returns the canonical link to n. Direct-message narrows
// leave the current user out, so selfUserID is added back the way the server
// lists participants; it is ignored when zero.
func BuildNarrowURL(realm *url.URL, n narrow.Narrow, lookup ChannelLookup, selfUserID int64, featureLevel int) (*url.URL, error) {
	switch n.Kind {
	case narrow.KindHome:
		return narrowURL(realm, ""), nil
	case narrow.KindChannel:
		return BuildChannelURL(realm, n.ChannelID, lookup), nil
	case narrow.KindTopic:
		return BuildTopicURL(realm, n.ChannelID, n.Topic, lookup), nil
	case narrow.KindDirect:
		if len(n.UserIDs) == 0 {
			return nil, narrow.ErrNoRecipients
		}

		msg := Message{Type: MessageTypePrivate}
		for _, id := range n.UserIDs {
			msg.Recipients = append(msg.Recipients, Recipient{ID: id})
		}

		if selfUserID > 0 {
			msg.Recipients = append(msg.Recipients, Recipient{ID: selfUserID})
		}

		return BuildDirectConversationURL(realm, msg, featureLevel), nil
	case narrow.KindStarred:
		return narrowURL(realm, fragmentPrefix+"is/starred"), nil
	case narrow.KindMentioned:
		return narrowURL(realm, fragmentPrefix+"is/mentioned"), nil
	case narrow.KindAllDirect:
		if featureLevel >= DMOperatorFeatureLevel {
			return narrowURL(realm, fragmentPrefix+"is/dm"), nil
		}

		return narrowURL(realm, fragmentPrefix+"is/private"), nil
	default:
		return nil, fmt.Errorf("cannot link to narrow kind %q", n.Kind)
	}
}

// WithNear returns a copy of the narrow link u anchored at messageID.
func WithNear(u *url.URL, messageID int64) *url.URL {
	return narrowURL(u, u.EscapedFragment()+"/near/"+strconv.FormatInt(messageID, 10))
}

// channelSlug renders a channel operand: "<id>-<slug>", or the bare ID when
// the channel is unknown or its name has no usable slug.
func channelSlug(channelID int64, lookup ChannelLookup) string {
	id := strconv.FormatInt(channelID, 10)
	if lookup == nil {
		lookup = (*channels.Directory)(nil)
	}

	c, ok := lookup.ChannelByID(channelID)
	if !ok {
		return id
	}

	if slug := c.Slug(); slug != "" {
		return id + "-" + slug
	}

	return id
}

// narrowURL builds a link on realm's origin. The fragment only ever holds
// characters that are legal in a URL fragment, so it is set raw to keep it
// byte-for-byte as built.
func narrowURL(realm *url.URL, fragment string) *url.URL {
	return &url.URL{
		Scheme:      realm.Scheme,
		Host:        realm.Host,
		Path:        "/",
		Fragment:    fragment,
		RawFragment: fragment,
	}
}
