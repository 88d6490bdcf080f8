// internal/handlers/room_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/Sebi2010-90/Schafkupfer/internal/auth"
	"github.com/Sebi2010-90/Schafkupfer/internal/room"
)

// TestRoomCreate checks that /room/create builds an ephemeral room in memory.
func TestRoomCreate(t *testing.T) {
	auth.Init() // ephemeral keys, no DB needed
	gs := NewGameServer()

	// ephemeral user ID
	uHost := uuid.New()

	token, _ := auth.CreateJWT(uHost.String())
	body := `{"name":"Stammtisch","type":"private"}`
	req := httptest.NewRequest("POST", "/room/create", bytes.NewBuffer([]byte(body)))
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()

	h := CreateRoomHandler(gs)
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var newRoom room.Room
	if err := json.Unmarshal(w.Body.Bytes(), &newRoom); err != nil {
		t.Fatalf("failed to decode room: %v", err)
	}
	if newRoom.ID == uuid.Nil {
		t.Fatalf("room has no ID")
	}
	if newRoom.HostUserID != uHost {
		t.Fatalf("room host mismatch, expected %v got %v", uHost, newRoom.HostUserID)
	}
	if newRoom.Name != "Stammtisch" {
		t.Fatalf("room name not applied, got %q", newRoom.Name)
	}
	if newRoom.Type != "private" {
		t.Fatalf("room type not applied, got %q", newRoom.Type)
	}

	if got, ok := gs.RoomStore.GetRoom(newRoom.ID); !ok || got == nil {
		t.Fatalf("room not registered in store")
	}
}

func TestRoomCreateRequiresAuth(t *testing.T) {
	auth.Init()
	gs := NewGameServer()

	req := httptest.NewRequest("POST", "/room/create", nil)
	w := httptest.NewRecorder()
	CreateRoomHandler(gs).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/room/create", nil)
	req.Header.Set("Cookie", "auth_token=not-a-jwt")
	w = httptest.NewRecorder()
	CreateRoomHandler(gs).ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRoomCreateRejectsBadType(t *testing.T) {
	auth.Init()
	gs := NewGameServer()

	token, _ := auth.CreateJWT(uuid.New().String())
	req := httptest.NewRequest("POST", "/room/create", bytes.NewBufferString(`{"type":"tournament"}`))
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()

	CreateRoomHandler(gs).ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown room type, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoomList(t *testing.T) {
	auth.Init()
	gs := NewGameServer()

	uHost := uuid.New()
	rm := room.NewRoomWithDefaults(uHost)
	rm.Name = "Wirtshaus"
	gs.RoomStore.AddRoom(rm)

	token, _ := auth.CreateJWT(uHost.String())
	req := httptest.NewRequest("GET", "/room/list", nil)
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()

	ListRoomsHandler(gs).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var rooms map[string]*room.Room
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("failed to decode room list: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	listed, ok := rooms[rm.ID.String()]
	if !ok || listed.ID != rm.ID {
		t.Fatalf("listed room mismatch")
	}
}
