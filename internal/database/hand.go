// internal/database/hand.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// HandAction is one archived engine action, as drained from the
// historian queue.
type HandAction struct {
	SessionID   uuid.UUID
	RoomID      uuid.UUID
	ActionIndex int
	ActorUserID uuid.UUID
	Seat        int
	ActionType  string
	Payload     map[string]interface{}
	Timestamp   int64
}

// InsertHandActions writes a batch of archived actions in one transaction.
func InsertHandActions(ctx context.Context, actions []HandAction) error {
	if len(actions) == 0 {
		return nil
	}

	q := `INSERT INTO hand_actions
	      (session_id, room_id, action_index, actor_user_id, seat, action_type, payload, ts)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	      ON CONFLICT (session_id, action_index) DO NOTHING`

	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, a := range actions {
			payload, err := json.Marshal(a.Payload)
			if err != nil {
				return fmt.Errorf("failed to marshal action payload: %w", err)
			}
			if _, err := tx.Exec(ctx, q,
				a.SessionID, a.RoomID, a.ActionIndex, a.ActorUserID,
				a.Seat, a.ActionType, payload, a.Timestamp,
			); err != nil {
				return fmt.Errorf("failed to insert hand action %d: %w", a.ActionIndex, err)
			}
		}
		return nil
	})
}

// MarkSessionAbandoned flags a session whose queue went quiet without a
// hand_end record.
func MarkSessionAbandoned(ctx context.Context, sessionID uuid.UUID) error {
	q := `INSERT INTO abandoned_sessions (session_id) VALUES ($1)
	      ON CONFLICT (session_id) DO NOTHING`
	if _, err := DB.Exec(ctx, q, sessionID); err != nil {
		return fmt.Errorf("failed to mark session abandoned: %w", err)
	}
	return nil
}
