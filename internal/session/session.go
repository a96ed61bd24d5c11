// Package session keeps the append-only interaction log and the session
// state derived from it.
package session

import (
	"sync"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/google/uuid"
)

// evolveThreshold is the interaction count at which the session advances
// out of its initial phase.
const evolveThreshold = 5

// Log records user interactions for the lifetime of a session. Entries are
// immutable once appended and never deleted. Construct one per session.
type Log struct {
	mu              sync.Mutex
	interactions    []types.Interaction
	phase           types.Phase
	lastInteraction *types.Interaction
	currentText     string
	currentCategory string
}

// NewLog creates an empty log in the initial phase.
func NewLog() *Log {
	return &Log{phase: types.PhaseInitial}
}

// Append records one interaction. It assigns the id and timestamp, derives
// the current text and category from text payloads, and advances the
// session phase when the interaction count crosses the threshold: to
// evolving first, to responsive on the next qualifying append, never
// backward.
func (l *Log) Append(interactionType types.InteractionType, position *types.Position, data *types.InteractionData) types.Interaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	interaction := types.Interaction{
		ID:        uuid.NewString(),
		Type:      interactionType,
		Position:  position,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	if data != nil && data.Text != nil {
		switch interactionType {
		case types.InteractionTyping:
			// Typing carries the full text content.
			l.currentText = data.Text.Text
		case types.InteractionPaste:
			// Pasting appends to whatever is already there.
			l.currentText += data.Text.Text
		}
		if data.Text.Category != "" {
			l.currentCategory = data.Text.Category
		}
	}

	l.interactions = append(l.interactions, interaction)
	last := interaction
	l.lastInteraction = &last

	if len(l.interactions) >= evolveThreshold {
		l.advance()
	}

	return interaction
}

// advance moves the phase one step forward. Callers hold l.mu.
func (l *Log) advance() {
	switch l.phase {
	case types.PhaseInitial:
		l.phase = types.PhaseEvolving
	case types.PhaseEvolving:
		l.phase = types.PhaseResponsive
	}
}

// SetCategory records the latest classification surfaced to the session.
func (l *Log) SetCategory(category string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentCategory = category
}

// CurrentText returns the latest text derived from type/paste events.
func (l *Log) CurrentText() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentText
}

// State returns a snapshot of the session.
func (l *Log) State() types.SessionState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := types.SessionState{
		Phase:           l.phase,
		CurrentText:     l.currentText,
		CurrentCategory: l.currentCategory,
	}
	if l.lastInteraction != nil {
		last := *l.lastInteraction
		state.LastInteraction = &last
	}
	return state
}

// Stats counts interactions per type over the full retained sequence.
func (l *Log) Stats() types.InteractionStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	byType := make(map[types.InteractionType]int)
	for _, interaction := range l.interactions {
		byType[interaction.Type]++
	}

	return types.InteractionStats{
		Total:  len(l.interactions),
		ByType: byType,
	}
}

// Interactions returns a copy of the retained sequence in append order.
func (l *Log) Interactions() []types.Interaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.Interaction(nil), l.interactions...)
}
