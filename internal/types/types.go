package types

import (
	"encoding/json"
	"time"
)

// Category represents the classification of typed or pasted text.
type Category string

const (
	CategoryCode            Category = "code"
	CategoryFood            Category = "food"
	CategoryCreativeWriting Category = "creative writing"
	CategoryQuestion        Category = "question"
	CategoryGreeting        Category = "greeting"
	CategoryTask            Category = "task"
	CategoryPersonal        Category = "personal"
	CategoryUnknown         Category = "unknown"
)

// Categories is the fixed enumeration order. Top-category selection breaks
// ties by first occurrence in this order, so it must not be reordered.
var Categories = []Category{
	CategoryCode,
	CategoryFood,
	CategoryCreativeWriting,
	CategoryQuestion,
	CategoryGreeting,
	CategoryTask,
	CategoryPersonal,
	CategoryUnknown,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Scores maps each category to a confidence value.
type Scores map[Category]float64

// NewScores returns a score map with every category present at zero.
func NewScores() Scores {
	s := make(Scores, len(Categories))
	for _, c := range Categories {
		s[c] = 0
	}
	return s
}

// Clone returns an independent copy of the score map.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for c, v := range s {
		out[c] = v
	}
	return out
}

// InterpretationResult is the outcome of one classification request.
type InterpretationResult struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// InteractionType identifies the kind of user action recorded.
type InteractionType string

const (
	InteractionHover   InteractionType = "hover"
	InteractionClick   InteractionType = "click"
	InteractionTyping  InteractionType = "type"
	InteractionMove    InteractionType = "move"
	InteractionScroll  InteractionType = "scroll"
	InteractionPaste   InteractionType = "paste"
	InteractionKeyDown InteractionType = "keydown"
	InteractionKeyUp   InteractionType = "keyup"
)

// InteractionTypes lists every recognized interaction type.
var InteractionTypes = []InteractionType{
	InteractionHover,
	InteractionClick,
	InteractionTyping,
	InteractionMove,
	InteractionScroll,
	InteractionPaste,
	InteractionKeyDown,
	InteractionKeyUp,
}

// Valid reports whether t is one of the known interaction types.
func (t InteractionType) Valid() bool {
	for _, known := range InteractionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Pointer reports whether the type carries a screen position.
func (t InteractionType) Pointer() bool {
	switch t {
	case InteractionHover, InteractionClick, InteractionMove, InteractionScroll:
		return true
	}
	return false
}

// Position is a 2D screen coordinate for pointer interactions.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextData is the payload for type and paste interactions.
type TextData struct {
	Text     string `json:"text"`
	Length   int    `json:"length,omitempty"`
	Category string `json:"category,omitempty"`
}

// KeyData is the payload for keydown and keyup interactions.
type KeyData struct {
	Key   string `json:"key"`
	Alt   bool   `json:"alt,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
}

// InteractionData holds the type-specific payload of an interaction.
// Only the sub-payload matching the interaction type is expected to be set;
// the others stay nil.
type InteractionData struct {
	Text *TextData `json:"text,omitempty"`
	Key  *KeyData  `json:"key,omitempty"`
}

// Interaction is one recorded user action. Entries are immutable once
// created and retained for the session lifetime.
type Interaction struct {
	ID        string           `json:"id"`
	Type      InteractionType  `json:"type"`
	Position  *Position        `json:"position,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Data      *InteractionData `json:"data,omitempty"`
}

// Phase is the coarse session lifecycle stage. Transitions only move
// forward: initial, then evolving, then responsive.
type Phase string

const (
	PhaseInitial    Phase = "initial"
	PhaseEvolving   Phase = "evolving"
	PhaseResponsive Phase = "responsive"
)

// SessionState is a point-in-time snapshot of the interaction session.
type SessionState struct {
	Phase           Phase        `json:"phase"`
	LastInteraction *Interaction `json:"last_interaction,omitempty"`
	CurrentText     string       `json:"current_text,omitempty"`
	CurrentCategory string       `json:"current_category,omitempty"`
}

// InteractionStats summarizes the retained interaction sequence.
type InteractionStats struct {
	Total  int                     `json:"total"`
	ByType map[InteractionType]int `json:"by_type"`
}

// MarshalJSON ensures a nil ByType map marshals as {} not null.
func (s InteractionStats) MarshalJSON() ([]byte, error) {
	if s.ByType == nil {
		s.ByType = map[InteractionType]int{}
	}
	type Alias InteractionStats
	return json.Marshal(Alias(s))
}

// RecentInteraction is one entry in the preference record's bounded
// most-recent-first log.
type RecentInteraction struct {
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text,omitempty"`
}

// PreferenceRecord is the durable per-user preference state.
type PreferenceRecord struct {
	CategoryPreferences   map[Category]int    `json:"category_preferences"`
	LastInteractions      []RecentInteraction `json:"last_interactions"`
	TotalInteractions     int                 `json:"total_interactions"`
	DataCollectionEnabled bool                `json:"data_collection_enabled"`
}

// DefaultPreferenceRecord returns the zeroed record used when no durable
// state exists: every category at weight zero, collection enabled.
func DefaultPreferenceRecord() PreferenceRecord {
	prefs := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		prefs[c] = 0
	}
	return PreferenceRecord{
		CategoryPreferences:   prefs,
		LastInteractions:      []RecentInteraction{},
		TotalInteractions:     0,
		DataCollectionEnabled: true,
	}
}

// TotalWeight returns the sum of all category preference weights.
func (r PreferenceRecord) TotalWeight() int {
	total := 0
	for _, w := range r.CategoryPreferences {
		total += w
	}
	return total
}

// Clone returns a deep copy of the record.
func (r PreferenceRecord) Clone() PreferenceRecord {
	out := r
	out.CategoryPreferences = make(map[Category]int, len(r.CategoryPreferences))
	for c, w := range r.CategoryPreferences {
		out.CategoryPreferences[c] = w
	}
	out.LastInteractions = append([]RecentInteraction(nil), r.LastInteractions...)
	return out
}

// MarshalJSON ensures nil collections in PreferenceRecord marshal as
// {} and [] rather than null.
func (r PreferenceRecord) MarshalJSON() ([]byte, error) {
	if r.CategoryPreferences == nil {
		r.CategoryPreferences = map[Category]int{}
	}
	if r.LastInteractions == nil {
		r.LastInteractions = []RecentInteraction{}
	}
	type Alias PreferenceRecord
	return json.Marshal(Alias(r))
}
