package session

import (
	"testing"

	"github.com/MarcoLSC/echo-emergent/internal/types"
)

func typeEvent(text string) *types.InteractionData {
	return &types.InteractionData{Text: &types.TextData{Text: text, Length: len(text)}}
}

func pasteEvent(text string) *types.InteractionData {
	return &types.InteractionData{Text: &types.TextData{Text: text, Length: len(text)}}
}

func TestAppend_AssignsIDAndTimestamp(t *testing.T) {
	log := NewLog()

	first := log.Append(types.InteractionClick, &types.Position{X: 10, Y: 20}, nil)
	second := log.Append(types.InteractionClick, &types.Position{X: 11, Y: 21}, nil)

	if first.ID == "" || second.ID == "" {
		t.Error("interactions missing ids")
	}
	if first.ID == second.ID {
		t.Error("interaction ids are not unique")
	}
	if first.Timestamp.IsZero() {
		t.Error("interaction missing timestamp")
	}
	if second.Timestamp.Before(first.Timestamp) {
		t.Error("timestamps went backward within a session")
	}
}

func TestAppend_TypingReplacesText(t *testing.T) {
	log := NewLog()

	log.Append(types.InteractionTyping, nil, typeEvent("hel"))
	log.Append(types.InteractionTyping, nil, typeEvent("hello"))

	if got := log.CurrentText(); got != "hello" {
		t.Errorf("CurrentText = %q, want %q", got, "hello")
	}
}

func TestAppend_PasteAppendsText(t *testing.T) {
	log := NewLog()

	log.Append(types.InteractionTyping, nil, typeEvent("hello "))
	log.Append(types.InteractionPaste, nil, pasteEvent("world"))

	if got := log.CurrentText(); got != "hello world" {
		t.Errorf("CurrentText = %q, want %q", got, "hello world")
	}
}

func TestAppend_NonTextEventsLeaveTextAlone(t *testing.T) {
	log := NewLog()

	log.Append(types.InteractionTyping, nil, typeEvent("hello"))
	log.Append(types.InteractionScroll, &types.Position{X: 0, Y: 100}, nil)
	log.Append(types.InteractionKeyDown, nil, &types.InteractionData{Key: &types.KeyData{Key: "Shift", Shift: true}})

	if got := log.CurrentText(); got != "hello" {
		t.Errorf("CurrentText = %q, want %q", got, "hello")
	}
}

func TestAppend_CategoryPayloadUpdatesSession(t *testing.T) {
	log := NewLog()

	log.Append(types.InteractionTyping, nil, &types.InteractionData{
		Text: &types.TextData{Text: "hello", Category: "greeting"},
	})

	if got := log.State().CurrentCategory; got != "greeting" {
		t.Errorf("CurrentCategory = %q, want %q", got, "greeting")
	}
}

func TestPhase_AdvancesAtThresholdAndNeverRegresses(t *testing.T) {
	log := NewLog()

	wantPhases := []types.Phase{
		types.PhaseInitial,    // 1
		types.PhaseInitial,    // 2
		types.PhaseInitial,    // 3
		types.PhaseInitial,    // 4
		types.PhaseEvolving,   // 5: threshold crossed
		types.PhaseResponsive, // 6: next qualifying append
		types.PhaseResponsive, // 7
		types.PhaseResponsive, // 8
	}

	var observed []types.Phase
	for i := 0; i < len(wantPhases); i++ {
		log.Append(types.InteractionMove, &types.Position{X: float64(i)}, nil)
		observed = append(observed, log.State().Phase)
	}

	for i, want := range wantPhases {
		if observed[i] != want {
			t.Errorf("phase after append %d = %s, want %s", i+1, observed[i], want)
		}
	}

	// Phase order must be a monotone walk through the lifecycle.
	rank := map[types.Phase]int{
		types.PhaseInitial:    0,
		types.PhaseEvolving:   1,
		types.PhaseResponsive: 2,
	}
	for i := 1; i < len(observed); i++ {
		if rank[observed[i]] < rank[observed[i-1]] {
			t.Fatalf("phase regressed from %s to %s", observed[i-1], observed[i])
		}
	}
}

func TestStats_CountsByType(t *testing.T) {
	log := NewLog()

	log.Append(types.InteractionClick, &types.Position{}, nil)
	log.Append(types.InteractionClick, &types.Position{}, nil)
	log.Append(types.InteractionTyping, nil, typeEvent("hi"))
	log.Append(types.InteractionScroll, &types.Position{}, nil)

	stats := log.Stats()
	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.ByType[types.InteractionClick] != 2 {
		t.Errorf("ByType[click] = %d, want 2", stats.ByType[types.InteractionClick])
	}
	if stats.ByType[types.InteractionTyping] != 1 {
		t.Errorf("ByType[type] = %d, want 1", stats.ByType[types.InteractionTyping])
	}
	if stats.ByType[types.InteractionScroll] != 1 {
		t.Errorf("ByType[scroll] = %d, want 1", stats.ByType[types.InteractionScroll])
	}
}

func TestStats_EmptyLog(t *testing.T) {
	stats := NewLog().Stats()
	if stats.Total != 0 {
		t.Errorf("Total = %d, want 0", stats.Total)
	}
	if len(stats.ByType) != 0 {
		t.Errorf("ByType has %d entries, want 0", len(stats.ByType))
	}
}

func TestState_TracksLastInteraction(t *testing.T) {
	log := NewLog()

	if log.State().LastInteraction != nil {
		t.Error("fresh log should have no last interaction")
	}

	appended := log.Append(types.InteractionHover, &types.Position{X: 5, Y: 5}, nil)
	state := log.State()
	if state.LastInteraction == nil {
		t.Fatal("LastInteraction is nil after append")
	}
	if state.LastInteraction.ID != appended.ID {
		t.Errorf("LastInteraction.ID = %s, want %s", state.LastInteraction.ID, appended.ID)
	}
}

func TestInteractions_ReturnsCopyInAppendOrder(t *testing.T) {
	log := NewLog()
	first := log.Append(types.InteractionClick, &types.Position{}, nil)
	second := log.Append(types.InteractionScroll, &types.Position{}, nil)

	got := log.Interactions()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Error("interactions not in append order")
	}

	// Mutating the returned slice must not affect the log.
	got[0].Type = types.InteractionPaste
	if log.Interactions()[0].Type != types.InteractionClick {
		t.Error("returned slice aliases internal storage")
	}
}

func TestSetCategory(t *testing.T) {
	log := NewLog()
	log.SetCategory("question")
	if got := log.State().CurrentCategory; got != "question" {
		t.Errorf("CurrentCategory = %q, want %q", got, "question")
	}
}
