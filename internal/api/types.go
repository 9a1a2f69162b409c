package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/dedene/narrowlink-cli/internal/channels"
	"github.com/dedene/narrowlink-cli/internal/links"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 32 << 20

// ServerSettings is the subset of GET /server_settings used for link building.
type ServerSettings struct {
	FeatureLevel int    `json:"zulip_feature_level"`
	Version      string `json:"zulip_version"`
	RealmURI     string `json:"realm_uri"`
	RealmName    string `json:"realm_name"`
}

// User is the subset of a user record needed to know who "self" is.
type User struct {
	ID       int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsBot    bool   `json:"is_bot"`
}

type channelsResponse struct {
	Streams []channels.Channel `json:"streams"`
}

type messageResponse struct {
	Message links.Message `json:"message"`
}

func readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return data, nil
}
