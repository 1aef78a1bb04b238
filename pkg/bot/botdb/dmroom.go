// Copyright 2024-2026 Aiku AI

package botdb

import (
	"context"
	"database/sql"
	"errors"
)

const (
	getDMRoomQuery = "SELECT room_id FROM dm_room WHERE user_id = $1"
	putDMRoomQuery = `
		INSERT INTO dm_room (user_id, room_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET room_id = excluded.room_id
	`
)

// DMRoom returns the remembered direct-message room for a user, "" when
// none is known yet. Used by the gateway so restarts don't spawn
// duplicate DM rooms.
func (db *Database) DMRoom(ctx context.Context, userID string) (string, error) {
	var roomID string
	err := db.QueryRow(ctx, getDMRoomQuery, userID).Scan(&roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return roomID, err
}

// PutDMRoom remembers the direct-message room for a user.
func (db *Database) PutDMRoom(ctx context.Context, userID, roomID string) error {
	_, err := db.Exec(ctx, putDMRoomQuery, userID, roomID)
	return err
}
