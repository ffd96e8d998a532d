// ABOUTME: Component interaction request body
// ABOUTME: Built fresh from a giveaway match for every button press

package interaction

import (
	"github.com/2389/giveaway-watcher/internal/classify"
)

const (
	// TypeMessageComponent is the interaction type for button presses.
	TypeMessageComponent = 3
)

// Request is the JSON body for POST /interactions.
type Request struct {
	Type          int         `json:"type"`
	GuildID       string      `json:"guild_id,omitempty"`
	ChannelID     string      `json:"channel_id"`
	MessageID     string      `json:"message_id"`
	ApplicationID string      `json:"application_id"`
	SessionID     string      `json:"session_id"`
	Nonce         string      `json:"nonce,omitempty"`
	Data          RequestData `json:"data"`
}

// RequestData identifies the pressed component.
type RequestData struct {
	ComponentType int    `json:"component_type"`
	CustomID      string `json:"custom_id"`
}

// NewRequest builds the press request for match within the given gateway session.
func NewRequest(match classify.Match, sessionID, nonce string) Request {
	return Request{
		Type:          TypeMessageComponent,
		GuildID:       match.GuildID,
		ChannelID:     match.ChannelID,
		MessageID:     match.MessageID,
		ApplicationID: match.AuthorOrAppID,
		SessionID:     sessionID,
		Nonce:         nonce,
		Data: RequestData{
			ComponentType: classify.ComponentButton,
			CustomID:      match.Button.CustomID,
		},
	}
}
