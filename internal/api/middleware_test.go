package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/gorilla/websocket"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var problem Problem
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if problem.Status != http.StatusUnauthorized {
		t.Errorf("problem status = %d, want %d", problem.Status, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_RejectsWrongToken(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	handler := newTestHandler(t, &mockPrefs{}, nil)
	server := httptest.NewServer(NewRouter(handler))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	handler := newTestHandler(t, &mockPrefs{}, nil)
	server := httptest.NewServer(NewRouter(handler))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/session")
	if err != nil {
		t.Fatalf("session request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_EventStreamDeliversInterpretations(t *testing.T) {
	handler := newTestHandler(t, &mockPrefs{}, nil)
	server := httptest.NewServer(NewRouter(handler))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// Drive an interpretation through the HTTP surface and expect it on
	// the stream. The subscription races the POST, so give the upgrade a
	// moment to register.
	time.Sleep(50 * time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/interpret",
		strings.NewReader(`{"text": "hello there"}`))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-key")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("interpret request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading event: %v", err)
	}

	if event.Type != EventInterpretation {
		t.Fatalf("event type = %q, want %q", event.Type, EventInterpretation)
	}
	if event.Result == nil || event.Result.Category != types.CategoryGreeting {
		t.Errorf("event result = %+v, want greeting", event.Result)
	}
}
