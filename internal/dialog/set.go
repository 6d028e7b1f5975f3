// ABOUTME: Set is the registry mapping dialog ids to their handlers
// ABOUTME: Dialog kinds register independently; lookup happens by the stored id string

package dialog

import (
	"fmt"
	"log/slog"
)

// Set maps dialog ids to handlers. It is populated at construction time and
// read-only afterwards, so lookups need no locking.
type Set struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewSet creates an empty dialog registry.
func NewSet(logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		handlers: make(map[string]Handler),
		logger:   logger.With("component", "dialog"),
	}
}

// Add registers a handler under the given id. Registering an empty id or the
// same id twice is a caller bug.
func (s *Set) Add(id string, h Handler) error {
	if id == "" {
		return fmt.Errorf("dialog id is required")
	}
	if h == nil {
		return fmt.Errorf("handler for dialog %q is nil", id)
	}
	if _, exists := s.handlers[id]; exists {
		return fmt.Errorf("dialog %q already registered", id)
	}
	s.handlers[id] = h
	s.logger.Debug("dialog registered", "dialog_id", id)
	return nil
}

// Find returns the handler for id, or ErrDialogNotFound.
func (s *Set) Find(id string) (Handler, error) {
	h, ok := s.handlers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDialogNotFound, id)
	}
	return h, nil
}
