package links

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dedene/narrowlink-cli/internal/channels"
	"github.com/dedene/narrowlink-cli/internal/encoding"
)

// ErrBadUserID is returned for a direct-message operand holding anything
// other than comma-separated decimal user IDs.
var ErrBadUserID = errors.New("invalid user ID in direct-message operand")

// ChannelLookup is the read-only channel table links are resolved against.
// *channels.Directory implements it.
type ChannelLookup interface {
	ChannelByID(id int64) (channels.Channel, bool)
	ChannelByName(name string) (channels.Channel, bool)
}

// Modern servers write "<id>-<slug>"; some write the bare ID.
var channelOperandRE = regexp.MustCompile(`^([0-9]+)(?:-.*)?$`)

// ParseChannelOperand identifies the channel a "stream"/"channel" operand
// refers to. The checks run in a fixed order:
//
//  1. a leading ID known to lookup wins outright;
//  2. otherwise the whole operand, decoded, is tried as a legacy channel name;
//  3. otherwise a leading ID is returned even though lookup does not know it,
//     since the channel may just be hidden from the current user.
//
// found is false when the operand has no leading ID and names no channel.
// err is non-nil only when the operand is not valid encoded text.
func ParseChannelOperand(operand string, lookup ChannelLookup) (id int64, found bool, err error) {
	if lookup == nil {
		lookup = (*channels.Directory)(nil)
	}

	candidate, hasCandidate := leadingChannelID(operand)
	if hasCandidate {
		if _, ok := lookup.ChannelByID(candidate); ok {
			return candidate, true, nil
		}
	}

	name, err := encoding.DecodeComponent(operand)
	if err != nil {
		return 0, false, fmt.Errorf("channel operand: %w", err)
	}

	if c, ok := lookup.ChannelByName(name); ok {
		return c.ID, true, nil
	}

	if hasCandidate {
		return candidate, true, nil
	}

	return 0, false, nil
}

func leadingChannelID(operand string) (int64, bool) {
	m := channelOperandRE.FindStringSubmatch(operand)
	if m == nil {
		return 0, false
	}

	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}

// ParseTopicOperand decodes a "topic"/"subject" operand.
func ParseTopicOperand(operand string) (string, error) {
	topic, err := encoding.DecodeComponent(operand)
	if err != nil {
		return "", fmt.Errorf("topic operand: %w", err)
	}

	return topic, nil
}

// ParseDirectOperand parses a "dm"/"pm-with" operand such as "8,12-group".
// The suffix after the first '-' is a display hint and is ignored. One bad
// ID fails the whole operand.
func ParseDirectOperand(operand string) ([]int64, error) {
	idList, _, _ := strings.Cut(operand, "-")
	pieces := strings.Split(idList, ",")

	ids := make([]int64, 0, len(pieces))
	for _, p := range pieces {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadUserID, p)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
