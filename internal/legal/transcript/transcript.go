// Package transcript holds the ordered message list of a single conversation.
package transcript

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/longkey1/legalc/internal/legal"
)

// ErrInvalidRole is returned when a message carries no known role.
var ErrInvalidRole = errors.New("invalid message role")

// Store is an append-only, clearable list of messages. Insertion order is the
// only ordering key. Every Clear starts a new generation.
type Store struct {
	mu         sync.RWMutex
	messages   []legal.Message
	generation uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		messages: []legal.Message{},
	}
}

// Append adds msg to the end of the transcript and returns the stored copy.
func (s *Store) Append(msg legal.Message) (legal.Message, error) {
	if !msg.Role.Valid() {
		return legal.Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	return msg, nil
}

// Add appends a fresh message. role must be one of the legal.Role constants;
// Add panics otherwise.
func (s *Store) Add(role legal.Role, content string) legal.Message {
	msg, err := s.Append(legal.Message{Role: role, Content: content})
	if err != nil {
		panic(err)
	}
	return msg
}

// Clear discards every message and returns the new generation.
func (s *Store) Clear() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = []legal.Message{}
	s.generation++
	return s.generation
}

// Snapshot returns a copy of the current transcript, oldest first.
func (s *Store) Snapshot() []legal.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]legal.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Generation returns the number of times the store has been cleared.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the most recent message with the given role.
func (s *Store) Last(role legal.Role) (legal.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == role {
			return s.messages[i], true
		}
	}
	return legal.Message{}, false
}
