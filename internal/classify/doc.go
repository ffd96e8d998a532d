// Package classify inspects message-create events from the gateway.
//
// # Overview
//
// Two independent, stateless checks run on every message:
//
//   - DetectWin: the account is mentioned and the content announces a winner.
//     This is observational only.
//   - DetectGiveaway: the content or embeds look like a giveaway and one of the
//     message's buttons looks like an entry button. The first matching button,
//     scanning rows top to bottom and buttons left to right, is returned.
//
// # Keywords
//
// Win keywords: "congratulations", "you won", "winner".
//
// Giveaway keywords (content or embed text): "giveaway", "winner", "hosted by".
//
// A button matches when its label contains "enter", "join" or "serta", its
// emoji name contains 🎉, or its custom id contains "giveaway". Matching is
// case-insensitive on label and content.
package classify
