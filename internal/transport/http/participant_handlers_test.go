package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterParticipant(t *testing.T) {
	server, _, _ := createTestServer(t)

	// Valid registration.
	req := httptest.NewRequest(http.MethodPost, "/participants", bytes.NewBufferString(`{"name":"Ann"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created ParticipantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if created.Name != "Ann" || created.LastStatus == 0 {
		t.Fatalf("unexpected participant response: %+v", created)
	}

	// Duplicate name conflicts.
	req = httptest.NewRequest(http.MethodPost, "/participants", bytes.NewBufferString(`{"name":"Ann"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}

	// Missing name is invalid.
	req = httptest.NewRequest(http.MethodPost, "/participants", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}

	// The broadcast token cannot be claimed as a name.
	req = httptest.NewRequest(http.MethodPost, "/participants", bytes.NewBufferString(`{"name":"everyone"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for reserved name, got %d", resp.Code)
	}
}

func TestListParticipants(t *testing.T) {
	server, svc, _ := createTestServer(t)

	for _, name := range []string{"ann", "bob"} {
		if _, err := svc.Register(context.Background(), name); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/participants", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var participants []ParticipantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &participants); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(participants))
	}
}

func TestHeartbeatEndpoint(t *testing.T) {
	server, svc, _ := createTestServer(t)

	// Unknown participant.
	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	req.Header.Set(HeaderUser, "ghost")
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}

	// Missing identity header behaves the same.
	req = httptest.NewRequest(http.MethodPost, "/status", nil)
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for missing header, got %d", resp.Code)
	}

	// Registered participant.
	if _, err := svc.Register(context.Background(), "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/status", nil)
	req.Header.Set(HeaderUser, "ann")
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestLeaveEndpoint(t *testing.T) {
	server, svc, _ := createTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/participants/ghost", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}

	if _, err := svc.Register(context.Background(), "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/participants/ann", nil)
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}
