package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxQueryLength    = 2000
	MinMaxResults     = 1
	MaxMaxResults     = 20
	DefaultMaxResults = 5
)

// Role identifies the speaker of a chat turn.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole accepts "user" or "assistant" (case-insensitive).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser, nil
	case "assistant", "ai", "model":
		return RoleAssistant, nil
	default:
		return RoleUser, fmt.Errorf("unknown chat role %q", s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ChatTurn is one message of prior conversation.
type ChatTurn struct {
	Role    Role
	Content string
}

// Filter is a conjunction of equality constraints applied by the vector index.
// Zero values mean "no constraint".
type Filter struct {
	Country  string
	Category *Category
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool {
	return f.Country == "" && f.Category == nil
}

// Query is a user question plus its retrieval options.
type Query struct {
	Text       string
	Filter     Filter
	MaxResults int
	History    []ChatTurn
}

// Validate enforces the request bounds before anything reaches the pipeline.
func (q Query) Validate() error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return NewError(KindValidation, "query.validate", fmt.Errorf("query must not be empty"))
	}
	if n := utf8.RuneCountInString(q.Text); n > MaxQueryLength {
		return NewError(KindValidation, "query.validate", fmt.Errorf("query length %d exceeds %d characters", n, MaxQueryLength))
	}
	if q.MaxResults < MinMaxResults || q.MaxResults > MaxMaxResults {
		return NewError(KindValidation, "query.validate", fmt.Errorf("max_results must be between %d and %d, got %d", MinMaxResults, MaxMaxResults, q.MaxResults))
	}
	return nil
}

// TrimHistory returns a copy of the last n turns.
func TrimHistory(history []ChatTurn, n int) []ChatTurn {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]ChatTurn, len(history))
	copy(out, history)
	return out
}
