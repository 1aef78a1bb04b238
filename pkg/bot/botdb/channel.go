// Copyright 2024-2026 Aiku AI

package botdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aiku/matrix-linkbot/pkg/bot"
)

const (
	getChannelQuery = "SELECT channel_id FROM channel WHERE kind = $1"
	setChannelQuery = `
		INSERT INTO channel (kind, channel_id) VALUES ($1, $2)
		ON CONFLICT (kind) DO UPDATE SET channel_id = excluded.channel_id
	`
)

// Channel returns the directory entry for a kind, "" when unset.
func (db *Database) Channel(ctx context.Context, kind bot.ChannelKind) (bot.Address, error) {
	var channelID string
	err := db.QueryRow(ctx, getChannelQuery, string(kind)).Scan(&channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return bot.Address(channelID), err
}

// SetChannel stores the directory entry for a kind, replacing any
// previous value. Setting the same pair twice leaves one entry.
func (db *Database) SetChannel(ctx context.Context, kind bot.ChannelKind, id bot.Address) error {
	_, err := db.Exec(ctx, setChannelQuery, string(kind), string(id))
	return err
}
