// Copyright 2024-2026 Aiku AI

// Package botdb implements the credential store, channel directory,
// settings and custom-button tables on SQLite via dbutil.
package botdb

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"
	"go.mau.fi/util/dbutil"

	"github.com/aiku/matrix-linkbot/pkg/bot"
)

// Database wraps a dbutil database with the bot's queries. It implements
// bot.Store.
type Database struct {
	*dbutil.Database
}

var _ bot.Store = (*Database)(nil)

var UpgradeTable dbutil.UpgradeTable

func init() {
	UpgradeTable.Register(-1, 1, 0, "Latest revision", dbutil.TxnModeOff, func(ctx context.Context, db *dbutil.Database) error {
		for _, query := range []string{
			`CREATE TABLE account (
				id           INTEGER PRIMARY KEY,
				login        TEXT    NOT NULL UNIQUE,
				password     TEXT    NOT NULL,
				identity     TEXT    UNIQUE,
				link         TEXT    NOT NULL DEFAULT '',
				display_name TEXT    NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE channel (
				kind       TEXT PRIMARY KEY,
				channel_id TEXT NOT NULL
			)`,
			`CREATE TABLE custom_button (
				id         INTEGER PRIMARY KEY,
				name       TEXT    NOT NULL,
				url        TEXT    NOT NULL,
				active     BOOLEAN NOT NULL DEFAULT true,
				sort_order INTEGER NOT NULL
			)`,
			`CREATE UNIQUE INDEX custom_button_active_name_idx
				ON custom_button (name) WHERE active`,
			`CREATE TABLE setting (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
			`CREATE TABLE dm_room (
				user_id TEXT PRIMARY KEY,
				room_id TEXT NOT NULL
			)`,
		} {
			if _, err := db.Exec(ctx, query); err != nil {
				return err
			}
		}
		return nil
	})
}

// New wraps a raw database and registers the schema upgrade table. Call
// Upgrade before first use.
func New(raw *dbutil.Database) *Database {
	raw.UpgradeTable = UpgradeTable
	raw.VersionTable = "linkbot_version"
	return &Database{Database: raw}
}

// isUniqueViolation detects SQLite unique-constraint failures so callers
// can report conflicts instead of opaque errors.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
