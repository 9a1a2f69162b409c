package links

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strconv"

	"github.com/dedene/narrowlink-cli/internal/narrow"
)

var (
	// ErrNotNarrowLink is returned by Resolve for a URL IsNarrowLink rejects.
	ErrNotNarrowLink = errors.New("not a narrow link")
	// ErrUndecodable is returned by Resolve for a narrow link that names no
	// narrow this package understands.
	ErrUndecodable = errors.New("narrow link could not be decoded")

	errUnknownChannel = errors.New("channel operand matches no channel")
	errUnknownView    = errors.New("unknown \"is\" operand")
)

// operator is one operator spelled any of the ways servers have written it.
type operator []string

func (op operator) matches(token string) bool {
	return slices.Contains(op, token)
}

var (
	opChannel = operator{"stream", "channel"}
	opTopic   = operator{"subject", "topic"}
	opDirect  = operator{"pm-with", "dm"}
	opNear    = operator{"near", "with"}
	opIs      = operator{"is"}
)

// shape is an operator sequence a link may consist of. The anchor operator
// is matched here so the link decodes, but its operand is read separately by
// DecodeNearAnchor.
type shape struct {
	operators []operator
	build     func(d decoder, operands []string) (narrow.Narrow, error)
}

var shapes = []shape{
	{[]operator{opDirect}, decoder.direct},
	{[]operator{opDirect, opNear}, decoder.direct},
	{[]operator{opChannel, opTopic}, decoder.topic},
	{[]operator{opChannel, opTopic, opNear}, decoder.topic},
	{[]operator{opChannel}, decoder.channel},
	{[]operator{opIs}, decoder.view},
}

// match returns the operands of tokens when they follow s exactly.
func (s shape) match(tokens []string) ([]string, bool) {
	if len(tokens) != 2*len(s.operators) {
		return nil, false
	}

	operands := make([]string, len(s.operators))
	for i, op := range s.operators {
		if !op.matches(tokens[2*i]) {
			return nil, false
		}

		operands[i] = tokens[2*i+1]
	}

	return operands, true
}

type decoder struct {
	lookup ChannelLookup
	self   int64
}

func (d decoder) direct(operands []string) (narrow.Narrow, error) {
	ids, err := ParseDirectOperand(operands[0])
	if err != nil {
		return narrow.Narrow{}, err
	}

	return narrow.Direct(ids, d.self)
}

func (d decoder) channelID(operand string) (int64, error) {
	id, found, err := ParseChannelOperand(operand, d.lookup)
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, fmt.Errorf("%w: %q", errUnknownChannel, operand)
	}

	return id, nil
}

func (d decoder) channel(operands []string) (narrow.Narrow, error) {
	id, err := d.channelID(operands[0])
	if err != nil {
		return narrow.Narrow{}, err
	}

	return narrow.Channel(id), nil
}

func (d decoder) topic(operands []string) (narrow.Narrow, error) {
	id, err := d.channelID(operands[0])
	if err != nil {
		return narrow.Narrow{}, err
	}

	topic, err := ParseTopicOperand(operands[1])
	if err != nil {
		return narrow.Narrow{}, err
	}

	return narrow.Topic(id, topic), nil
}

func (d decoder) view(operands []string) (narrow.Narrow, error) {
	switch operands[0] {
	case "starred":
		return narrow.Starred(), nil
	case "mentioned":
		return narrow.Mentioned(), nil
	case "dm", "private":
		return narrow.AllDirect(), nil
	default:
		return narrow.Narrow{}, fmt.Errorf("%w: %q", errUnknownView, operands[0])
	}
}

// DecodeNarrowLink returns the narrow a narrow link points to. ok is false
// when the link has no shape this package knows, or a matching shape holds an
// operand that cannot be parsed; no fallback narrow is substituted.
//
// u must satisfy IsNarrowLink. lookup resolves channel operands and selfUserID
// normalizes direct-message participants.
func DecodeNarrowLink(u *url.URL, lookup ChannelLookup, selfUserID int64) (n narrow.Narrow, ok bool) {
	tokens := SplitFragment(u)
	d := decoder{lookup: lookup, self: selfUserID}

	for _, s := range shapes {
		operands, matched := s.match(tokens)
		if !matched {
			continue
		}

		decoded, err := s.build(d, operands)
		if err != nil {
			slog.Debug("narrow link not decoded", "fragment", u.EscapedFragment(), "error", err)

			return narrow.Narrow{}, false
		}

		return decoded, true
	}

	return narrow.Narrow{}, false
}

var anchorRE = regexp.MustCompile(`^[0-9]+$`)

// DecodeNearAnchor returns the message ID a narrow link is anchored at: the
// operand of the first "near"/"with" operator. It is independent of
// DecodeNarrowLink and does not care whether the rest of the link decodes.
func DecodeNearAnchor(u *url.URL) (int64, bool) {
	tokens := SplitFragment(u)

	for i := 0; i < len(tokens); i += 2 {
		if !opNear.matches(tokens[i]) {
			continue
		}

		if i+1 >= len(tokens) || !anchorRE.MatchString(tokens[i+1]) {
			return 0, false
		}

		id, err := strconv.ParseInt(tokens[i+1], 10, 64)
		if err != nil {
			return 0, false
		}

		return id, true
	}

	return 0, false
}

// Link is a decoded narrow link.
type Link struct {
	Narrow narrow.Narrow `json:"narrow"`
	Anchor *int64        `json:"anchor,omitempty"`
}

// Resolve checks u against realm and decodes both its narrow and its anchor.
func Resolve(u, realm *url.URL, lookup ChannelLookup, selfUserID int64) (Link, error) {
	if !IsNarrowLink(u, realm) {
		return Link{}, ErrNotNarrowLink
	}

	n, ok := DecodeNarrowLink(u, lookup, selfUserID)
	if !ok {
		return Link{}, ErrUndecodable
	}

	link := Link{Narrow: n}
	if anchor, ok := DecodeNearAnchor(u); ok {
		link.Anchor = &anchor
	}

	return link, nil
}
