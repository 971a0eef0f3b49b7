// Package conversation holds the chat history for the process lifetime.
//
// The log is append-only except for the pending model turn: a placeholder
// appended before a request is dispatched, then either filled with the reply
// or removed. At most one pending turn exists and it is always last. The
// persona instruction is never stored; it is prepended only when building a
// context window.
package conversation

import (
	"errors"
	"fmt"
	"iter"
	"sync"
)

// Role identifies who produced a turn. The values match the wire protocol.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Turn is one message in the conversation.
type Turn struct {
	Role Role
	Text string
}

// UserTurn creates a user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// ModelTurn creates a model turn.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Text: text}
}

var (
	// ErrInvariantViolation is returned when an operation would leave more
	// than one pending turn, or a pending turn that is not last.
	ErrInvariantViolation = errors.New("conversation: pending turn invariant violated")
	// ErrNoPendingTurn is returned by FillPending and RemovePending when the
	// last turn is not the pending placeholder.
	ErrNoPendingTurn = errors.New("conversation: no pending turn")
	// ErrInvalidTurn is returned for turns with an unknown role.
	ErrInvalidTurn = errors.New("conversation: invalid turn")
)

// Store is the ordered conversation log. It is safe for concurrent use; every
// mutation and snapshot is serialized by one mutex.
type Store struct {
	mu      sync.Mutex
	persona Turn
	turns   []Turn
	pending bool
}

// NewStore creates an empty store. persona is sent as the first user turn of
// every context window.
func NewStore(persona string) *Store {
	return &Store{persona: UserTurn(persona)}
}

// Persona returns the constant instruction turn.
func (s *Store) Persona() Turn {
	return s.persona
}

// Append adds a completed turn to the end of the log.
func (s *Store) Append(turn Turn) error {
	if !turn.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidTurn, turn.Role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return fmt.Errorf("%w: append while a reply is pending", ErrInvariantViolation)
	}
	s.turns = append(s.turns, turn)
	return nil
}

// AppendPendingModelTurn appends an empty model turn that marks an
// outstanding request.
func (s *Store) AppendPendingModelTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return fmt.Errorf("%w: pending turn already exists", ErrInvariantViolation)
	}
	s.turns = append(s.turns, ModelTurn(""))
	s.pending = true
	return nil
}

// FillPending sets the text of the pending turn, making it a regular turn.
func (s *Store) FillPending(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return ErrNoPendingTurn
	}
	s.turns[len(s.turns)-1].Text = text
	s.pending = false
	return nil
}

// RemovePending drops the pending turn, restoring the log to its shape
// before AppendPendingModelTurn.
func (s *Store) RemovePending() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return ErrNoPendingTurn
	}
	s.turns = s.turns[:len(s.turns)-1]
	s.pending = false
	return nil
}

// HasPending reports whether a reply is outstanding.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Len returns the number of stored turns, including a pending one.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// ContextWindow returns the persona followed by the most recent 2*maxPairs
// completed turns. A pending turn is never included. Older turns beyond the
// window are dropped silently.
func (s *Store) ContextWindow(maxPairs int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := s.turns
	if s.pending {
		completed = completed[:len(completed)-1]
	}
	limit := 2 * maxPairs
	if limit < 0 {
		limit = 0
	}
	start := max(0, len(completed)-limit)

	window := make([]Turn, 0, 1+len(completed)-start)
	window = append(window, s.persona)
	window = append(window, completed[start:]...)
	return window
}

// Snapshot returns a copy of all stored turns, oldest first.
func (s *Store) Snapshot() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// All yields the stored turns oldest first, including a pending turn. The
// sequence reads from a snapshot taken when iteration starts.
func (s *Store) All() iter.Seq[Turn] {
	return func(yield func(Turn) bool) {
		for _, t := range s.Snapshot() {
			if !yield(t) {
				return
			}
		}
	}
}

// Newest yields the stored turns newest first.
func (s *Store) Newest() iter.Seq[Turn] {
	return func(yield func(Turn) bool) {
		turns := s.Snapshot()
		for i := len(turns) - 1; i >= 0; i-- {
			if !yield(turns[i]) {
				return
			}
		}
	}
}
