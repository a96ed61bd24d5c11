package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MarcoLSC/echo-emergent/internal/interpret"
	"github.com/MarcoLSC/echo-emergent/internal/session"
	"github.com/MarcoLSC/echo-emergent/internal/store"
	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/MarcoLSC/echo-emergent/internal/validation"
)

// Handler implements the API handlers
type Handler struct {
	session     *session.Log
	interpreter *interpret.Interpreter
	prefs       store.Store
	hub         *Hub
	apiKey      string
	version     string
}

// NewHandler creates a new Handler over the session log, the debounced
// interpreter, and the preference store.
func NewHandler(log *session.Log, interpreter *interpret.Interpreter, prefs store.Store, hub *Hub, apiKey, version string) *Handler {
	return &Handler{
		session:     log,
		interpreter: interpreter,
		prefs:       prefs,
		hub:         hub,
		apiKey:      apiKey,
		version:     version,
	}
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status            string      `json:"status"`
	Version           string      `json:"version"`
	Backend           string      `json:"backend"`
	Phase             types.Phase `json:"phase"`
	TotalInteractions int         `json:"total_interactions"`
}

// InteractionRequest is the body of POST /api/v1/interactions.
type InteractionRequest struct {
	Type     types.InteractionType  `json:"type"`
	Position *types.Position        `json:"position,omitempty"`
	Data     *types.InteractionData `json:"data,omitempty"`
}

// InterpretRequest is the body of POST /api/v1/interpret.
type InterpretRequest struct {
	Text string `json:"text"`
}

// PreferenceInteractionRequest is the body of POST /api/v1/preferences/interactions.
type PreferenceInteractionRequest struct {
	Category types.Category `json:"category"`
	Text     string         `json:"text,omitempty"`
	Accepted bool           `json:"accepted,omitempty"`
}

// ToggleResponse is the body of POST /api/v1/preferences/toggle.
type ToggleResponse struct {
	Enabled bool `json:"enabled"`
}

// CategoriesResponse is the body of GET /api/v1/preferences/categories.
type CategoriesResponse struct {
	Categories []types.Category `json:"categories"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.session.Stats()
	state := h.session.State()

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "healthy",
		Version:           h.version,
		Backend:           h.interpreter.Backend().Name(),
		Phase:             state.Phase,
		TotalInteractions: stats.Total,
	})
}

// CreateInteraction handles POST /api/v1/interactions
func (h *Handler) CreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	errs := validation.ValidateInteraction(req.Type, req.Data)
	if len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	interaction := h.session.Append(req.Type, req.Position, req.Data)

	// Text-bearing events drive the interpretation pipeline off the full
	// accumulated text, not just this event's payload.
	if hasText(req.Type, req.Data) {
		h.requestInterpretation(h.session.CurrentText())
	}

	writeJSON(w, http.StatusAccepted, interaction)
}

// hasText reports whether the event carries text content for interpretation.
func hasText(t types.InteractionType, data *types.InteractionData) bool {
	if data == nil || data.Text == nil {
		return false
	}
	return t == types.InteractionTyping || t == types.InteractionPaste
}

// requestInterpretation schedules a debounced interpretation whose outcome
// is fanned out on the event stream and mirrored into the session state.
func (h *Handler) requestInterpretation(text string) {
	h.interpreter.Request(text,
		func(result types.InterpretationResult) {
			h.session.SetCategory(string(result.Category))
			h.hub.PublishResult(result)
		},
		func(message string) {
			h.hub.PublishError(message)
		},
	)
}

// Stats handles GET /api/v1/interactions/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Stats())
}

// SessionState handles GET /api/v1/session
func (h *Handler) SessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.State())
}

// Interpret handles POST /api/v1/interpret
func (h *Handler) Interpret(w http.ResponseWriter, r *http.Request) {
	var req InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateText("text", req.Text); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	h.requestInterpretation(req.Text)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Preferences handles GET /api/v1/preferences
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.prefs.History(r.Context()))
}

// PreferredCategories handles GET /api/v1/preferences/categories
func (h *Handler) PreferredCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CategoriesResponse{
		Categories: h.prefs.PreferredCategories(r.Context()),
	})
}

// RecordPreference handles POST /api/v1/preferences/interactions
func (h *Handler) RecordPreference(w http.ResponseWriter, r *http.Request) {
	var req PreferenceInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	collector := &validation.Collector{}
	collector.Add(validation.ValidateCategory("category", req.Category))
	for _, e := range validation.ValidateText("text", req.Text) {
		err := e
		collector.Add(&err)
	}
	if collector.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", collector.Errors())
		return
	}

	h.prefs.RecordInteraction(r.Context(), req.Category, req.Text, req.Accepted)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleCollection handles POST /api/v1/preferences/toggle
func (h *Handler) ToggleCollection(w http.ResponseWriter, r *http.Request) {
	enabled := h.prefs.ToggleDataCollection(r.Context())
	writeJSON(w, http.StatusOK, ToggleResponse{Enabled: enabled})
}

// ClearPreferences handles DELETE /api/v1/preferences
func (h *Handler) ClearPreferences(w http.ResponseWriter, r *http.Request) {
	h.prefs.ClearHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
