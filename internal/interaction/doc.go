// Package interaction presses giveaway buttons through the REST API.
//
// # Overview
//
// A Dispatcher receives a classify.Match from a gateway session, waits a
// random delay in [MinDelay, MaxDelay), then submits a component interaction:
//
//	POST {api_base}/interactions
//	Authorization: <account token>
//
//	{
//	  "type": 3,
//	  "guild_id": "...", "channel_id": "...", "message_id": "...",
//	  "application_id": "...", "session_id": "...", "nonce": "...",
//	  "data": {"component_type": 2, "custom_id": "..."}
//	}
//
// Any 2xx response is success. Anything else is logged with status and body
// and is not retried; network failures are likewise logged and dropped.
//
// The delay wait is bound to the caller's context. Sessions pass the context
// of their current socket generation, so a disconnect cancels pending presses.
package interaction
