// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Sebi2010-90/Schafkupfer/internal/auth"
	"github.com/Sebi2010-90/Schafkupfer/internal/room"
)

var validRoomTypes = map[string]bool{
	"private": true,
	"public":  true,
}

// CreateRoomHandler builds an ephemeral in-memory room. No DB writes;
// the room removes itself once the last connection leaves.
func CreateRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		if !strings.Contains(cookie, "auth_token=") {
			http.Error(w, "missing auth_token", http.StatusUnauthorized)
			return
		}
		token := extractCookieToken(cookie, "auth_token")

		userIDStr, err := auth.AuthenticateJWT(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			http.Error(w, "invalid user id format in token", http.StatusBadRequest)
			return
		}

		rm := room.NewRoomWithDefaults(userID)

		if err := json.NewDecoder(r.Body).Decode(rm); err != nil && err.Error() != "EOF" {
			http.Error(w, "bad room request payload", http.StatusBadRequest)
			return
		}

		if rm.Type != "" && !validRoomTypes[rm.Type] {
			http.Error(w, "invalid room type", http.StatusBadRequest)
			return
		}

		// Remove from the store once everyone has left.
		rm.OnEmpty = func(roomID uuid.UUID) {
			gs.RoomStore.DeleteRoom(roomID)
		}

		gs.RoomStore.AddRoom(rm)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rm)
	}
}

// ListRoomsHandler returns the in-memory room store.
func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		if !strings.Contains(cookie, "auth_token=") {
			http.Error(w, "missing auth_token", http.StatusUnauthorized)
			return
		}
		token := extractTokenFromCookie(cookie)
		if _, err := auth.AuthenticateJWT(token); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		rooms := gs.RoomStore.GetRooms()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rooms)
	}
}
