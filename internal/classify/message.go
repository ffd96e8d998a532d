// ABOUTME: Wire types for message-create event payloads
// ABOUTME: Messages, users, embeds and component rows as delivered by the gateway

package classify

import "strings"

// Component types used in message action rows.
const (
	ComponentActionRow = 1
	ComponentButton    = 2
)

// User is the subset of a user object the watcher reads.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
}

// Message is a MESSAGE_CREATE payload.
type Message struct {
	ID            string      `json:"id"`
	ChannelID     string      `json:"channel_id"`
	GuildID       string      `json:"guild_id,omitempty"`
	Content       string      `json:"content"`
	Author        User        `json:"author"`
	ApplicationID string      `json:"application_id,omitempty"`
	Mentions      []User      `json:"mentions"`
	Embeds        []Embed     `json:"embeds"`
	Components    []ActionRow `json:"components"`
}

// Mentioned reports whether the user with the given id is in the mention list.
func (m *Message) Mentioned(userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range m.Mentions {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Embed is a rich embed attached to a message.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type EmbedAuthor struct {
	Name string `json:"name"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// text flattens every human-readable string in the embed, one per line.
func (e Embed) text() string {
	parts := []string{e.Title, e.Description}
	if e.Author != nil {
		parts = append(parts, e.Author.Name)
	}
	for _, f := range e.Fields {
		parts = append(parts, f.Name, f.Value)
	}
	if e.Footer != nil {
		parts = append(parts, e.Footer.Text)
	}

	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p)
	}
	return b.String()
}

// ActionRow is a top-level component holding interactive components.
type ActionRow struct {
	Type       int         `json:"type"`
	Components []Component `json:"components"`
}

// Component is an interactive element inside an action row.
type Component struct {
	Type     int    `json:"type"`
	Style    int    `json:"style,omitempty"`
	Label    string `json:"label,omitempty"`
	CustomID string `json:"custom_id,omitempty"`
	Emoji    *Emoji `json:"emoji,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

type Emoji struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}
