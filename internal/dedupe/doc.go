// Package dedupe remembers which giveaway messages an account has already
// pressed a button on, so a replayed message event does not produce a second
// interaction for the same account.
package dedupe
