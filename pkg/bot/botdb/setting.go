// Copyright 2024-2026 Aiku AI

package botdb

import (
	"context"
	"database/sql"
	"errors"
)

const (
	getSettingQuery = "SELECT value FROM setting WHERE key = $1"
	putSettingQuery = `
		INSERT INTO setting (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`
)

// Setting returns a stored value, "" when unset.
func (db *Database) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRow(ctx, getSettingQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (db *Database) PutSetting(ctx context.Context, key, value string) error {
	_, err := db.Exec(ctx, putSettingQuery, key, value)
	return err
}
