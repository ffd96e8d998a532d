// ABOUTME: Stateless win and giveaway detection over message-create events
// ABOUTME: Builds a candidate view of a message and picks the first entry button

package classify

import (
	"strings"
)

var (
	winKeywords      = []string{"congratulations", "you won", "winner"}
	giveawayKeywords = []string{"giveaway", "winner", "hosted by"}
	joinWords        = []string{"enter", "join", "serta"}
)

const (
	celebrationEmoji = "🎉"
	giveawayIDMarker = "giveaway"
)

// Win is emitted when a message announces that the account won.
type Win struct {
	ChannelID string
	MessageID string
	Content   string
}

// DetectWin reports a win when selfID is mentioned and the content carries a
// winner keyword. An empty selfID (identity not yet known) never matches.
func DetectWin(m *Message, selfID string) (Win, bool) {
	if m == nil || !m.Mentioned(selfID) {
		return Win{}, false
	}
	if !containsAny(strings.ToLower(m.Content), winKeywords) {
		return Win{}, false
	}
	return Win{ChannelID: m.ChannelID, MessageID: m.ID, Content: m.Content}, true
}

// Button describes one interactive component in a candidate's rows.
type Button struct {
	Label     string
	EmojiName string
	CustomID  string
	Kind      int
}

// matches reports whether the button looks like a giveaway entry button.
func (b Button) matches() bool {
	if b.Kind != ComponentButton {
		return false
	}
	label := strings.ToLower(b.Label)
	return containsAny(label, joinWords) ||
		strings.Contains(b.EmojiName, celebrationEmoji) ||
		strings.Contains(b.CustomID, giveawayIDMarker)
}

// Display returns the label, or the emoji for label-less buttons.
func (b Button) Display() string {
	if b.Label != "" {
		return b.Label
	}
	return b.EmojiName
}

// Candidate is an ephemeral view over a message for giveaway detection.
type Candidate struct {
	ChannelID     string
	MessageID     string
	GuildID       string
	AuthorOrAppID string
	Text          string
	EmbedText     string
	Rows          [][]Button
}

// NewCandidate derives the candidate view of m. The application id falls back
// to the author id when the message carries none.
func NewCandidate(m *Message) Candidate {
	c := Candidate{
		ChannelID:     m.ChannelID,
		MessageID:     m.ID,
		GuildID:       m.GuildID,
		AuthorOrAppID: m.ApplicationID,
		Text:          m.Content,
	}
	if c.AuthorOrAppID == "" {
		c.AuthorOrAppID = m.Author.ID
	}

	embeds := make([]string, 0, len(m.Embeds))
	for _, e := range m.Embeds {
		if t := e.text(); t != "" {
			embeds = append(embeds, t)
		}
	}
	c.EmbedText = strings.Join(embeds, "\n")

	for _, row := range m.Components {
		buttons := make([]Button, 0, len(row.Components))
		for _, comp := range row.Components {
			b := Button{Label: comp.Label, CustomID: comp.CustomID, Kind: comp.Type}
			if comp.Emoji != nil {
				b.EmojiName = comp.Emoji.Name
			}
			buttons = append(buttons, b)
		}
		c.Rows = append(c.Rows, buttons)
	}
	return c
}

// IsGiveaway reports whether the content or embed text carries a giveaway keyword.
func (c Candidate) IsGiveaway() bool {
	return containsAny(strings.ToLower(c.Text), giveawayKeywords) ||
		containsAny(strings.ToLower(c.EmbedText), giveawayKeywords)
}

// FirstEntryButton scans rows in order and buttons within each row in order,
// returning the first entry button.
func (c Candidate) FirstEntryButton() (Button, bool) {
	for _, row := range c.Rows {
		for _, b := range row {
			if b.matches() {
				return b, true
			}
		}
	}
	return Button{}, false
}

// Match is a giveaway message paired with the button to press.
type Match struct {
	Candidate
	Button Button
}

// DetectGiveaway returns the entry button to press for m, if any. Messages
// without action rows, without giveaway keywords, or without a matching
// button yield no match.
func DetectGiveaway(m *Message) (Match, bool) {
	if m == nil || len(m.Components) == 0 {
		return Match{}, false
	}
	c := NewCandidate(m)
	if !c.IsGiveaway() {
		return Match{}, false
	}
	b, ok := c.FirstEntryButton()
	if !ok {
		return Match{}, false
	}
	return Match{Candidate: c, Button: b}, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
