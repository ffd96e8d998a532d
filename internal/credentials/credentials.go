// ABOUTME: Credential source reading account tokens from the environment or a file
// ABOUTME: Cleans, filters and orders tokens; creates an empty token file when none exists

package credentials

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultMinLength is the shortest token kept.
const DefaultMinLength = 11

var (
	// ErrNoCredentials means a source was found but held no usable token.
	ErrNoCredentials = errors.New("no credentials found")
	// ErrTokenFileCreated means no source existed and an empty token file was written.
	ErrTokenFileCreated = errors.New("token file created")
)

var envSeparators = regexp.MustCompile(`[\n,]+`)

// Source describes where tokens are read from.
type Source struct {
	// EnvVar is consulted first; an unset or empty variable falls through to File.
	EnvVar    string
	File      string
	MinLength int
}

// Tokens is the result of a successful load.
type Tokens struct {
	Values []string
	// Origin names where the values came from, for startup logging.
	Origin string
}

// Load reads tokens from the environment variable, else the file. If neither
// exists the file is created empty and ErrTokenFileCreated is returned.
func (s Source) Load() (*Tokens, error) {
	if s.EnvVar != "" {
		if raw := os.Getenv(s.EnvVar); raw != "" {
			return s.result(envSeparators.Split(raw, -1), "environment variable "+s.EnvVar)
		}
	}

	if s.File == "" {
		return nil, ErrNoCredentials
	}

	data, err := os.ReadFile(s.File)
	if errors.Is(err, os.ErrNotExist) {
		if werr := os.WriteFile(s.File, nil, 0o600); werr != nil {
			return nil, fmt.Errorf("creating token file: %w", werr)
		}
		return nil, fmt.Errorf("%w: %s", ErrTokenFileCreated, s.File)
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return s.result(strings.Split(string(data), "\n"), s.File)
}

func (s Source) result(entries []string, origin string) (*Tokens, error) {
	values := Filter(entries, s.minLength())
	if len(values) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCredentials, origin)
	}
	return &Tokens{Values: values, Origin: origin}, nil
}

func (s Source) minLength() int {
	if s.MinLength > 0 {
		return s.MinLength
	}
	return DefaultMinLength
}

// Clean strips quotes and carriage returns, then surrounding whitespace.
func Clean(token string) string {
	token = strings.ReplaceAll(token, `"`, "")
	token = strings.ReplaceAll(token, "\r", "")
	return strings.TrimSpace(token)
}

// Filter cleans each entry and keeps those at least minLength long, in order.
func Filter(entries []string, minLength int) []string {
	var out []string
	for _, e := range entries {
		if t := Clean(e); len(t) >= minLength {
			out = append(out, t)
		}
	}
	return out
}
