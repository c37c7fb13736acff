package conversation

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Turn is one message of a session's conversation history.
type Turn struct {
	role    string
	content string
}

// New creates a validated turn. Only user and assistant roles are allowed.
func New(role, content string) (Turn, error) {
	switch role {
	case domain.RoleUser, domain.RoleAssistant:
	default:
		return Turn{}, fmt.Errorf("%w: role %q", domain.ErrInvalidTurn, role)
	}
	return Turn{role: role, content: content}, nil
}

// Reconstruct restores a turn from storage without validation.
func Reconstruct(role, content string) Turn {
	return Turn{role: role, content: content}
}

// Role returns user or assistant.
func (t Turn) Role() string { return t.role }

// Content returns the message text.
func (t Turn) Content() string { return t.content }

// Message converts the turn to a provider message.
func (t Turn) Message() domain.Message {
	return domain.Message{Role: t.role, Content: t.content}
}

// Tail returns the last n turns, oldest first. n <= 0 returns nil.
func Tail(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if n >= len(turns) {
		return turns
	}
	return turns[len(turns)-n:]
}

// Format renders turns as "role: content" lines, oldest first.
func Format(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.role)
		b.WriteString(": ")
		b.WriteString(t.content)
	}
	return b.String()
}
