// Package store persists the per-user preference record and applies
// preference-weighted confidence adjustment.
//
// Unusually for a storage layer, the read and mutation methods do not return
// errors: the contract is fail-soft. Unreadable or missing state degrades to
// the zeroed default record, and write failures are logged and swallowed.
// The in-memory result stays correct for the rest of the session even when
// durability was lost.
package store

import (
	"context"

	"github.com/MarcoLSC/echo-emergent/internal/types"
)

// DefaultRecordName is the fixed logical key the preference record is
// stored under.
const DefaultRecordName = "echo_user_preferences"

const (
	// maxRecentInteractions bounds the most-recent-first log.
	maxRecentInteractions = 20

	// maxRecentTextLen caps the text retained per recent interaction.
	maxRecentTextLen = 100

	// acceptedWeight and recordedWeight are the increments applied to a
	// category when an interaction is recorded.
	acceptedWeight = 2
	recordedWeight = 1
)

// Store defines the interface contract for preference persistence.
type Store interface {
	// History returns the current record, or the zeroed default when no
	// durable state exists or it cannot be read.
	History(ctx context.Context) types.PreferenceRecord

	// RecordInteraction accumulates weight for a category and prepends a
	// recent-interaction entry. No-op while data collection is disabled.
	RecordInteraction(ctx context.Context, category types.Category, text string, accepted bool)

	// ToggleDataCollection flips the collection flag and returns the new
	// state. Disabling destroys all accumulated data.
	ToggleDataCollection(ctx context.Context) bool

	// ClearHistory resets the record to defaults regardless of the flag.
	ClearHistory(ctx context.Context)

	// PreferredCategories returns all categories ordered by descending
	// accumulated weight.
	PreferredCategories(ctx context.Context) []types.Category

	Close() error
}
