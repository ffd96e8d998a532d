// Package credentials loads account tokens for giveaway-watcher.
//
// Tokens come from an environment variable (comma or newline separated) or,
// when that variable is empty, from a file with one token per line. Each
// entry is cleaned of quotes, carriage returns and surrounding whitespace,
// and entries shorter than the minimum length are discarded. Order is
// preserved; session labels are derived from it.
//
// When neither source exists an empty token file is created so the operator
// has somewhere to paste tokens, and [ErrTokenFileCreated] is returned.
package credentials
