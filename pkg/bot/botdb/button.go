// Copyright 2024-2026 Aiku AI

package botdb

import (
	"context"
	"database/sql"
	"errors"

	"go.mau.fi/util/dbutil"

	"github.com/aiku/matrix-linkbot/pkg/bot"
)

const (
	buttonColumns = "id, name, url, active, sort_order"

	getButtonByIDQuery = "SELECT " + buttonColumns + " FROM custom_button WHERE id = $1"
	listButtonsQuery   = "SELECT " + buttonColumns + " FROM custom_button ORDER BY sort_order"
	listActiveButtonsQuery = "SELECT " + buttonColumns +
		" FROM custom_button WHERE active ORDER BY sort_order"
	createButtonQuery = `
		INSERT INTO custom_button (name, url, sort_order)
		VALUES ($1, $2, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM custom_button))
	`
	updateButtonQuery = "UPDATE custom_button SET name = COALESCE($1, name), url = COALESCE($2, url) WHERE id = $3"
	toggleButtonQuery = "UPDATE custom_button SET active = NOT active WHERE id = $1"
	deleteButtonQuery = "DELETE FROM custom_button WHERE id = $1"
)

func scanButton(row dbutil.Scannable) (*bot.Button, error) {
	var btn bot.Button
	err := row.Scan(&btn.ID, &btn.Name, &btn.URL, &btn.Active, &btn.SortOrder)
	if err != nil {
		return nil, err
	}
	return &btn, nil
}

// CreateButton inserts a button at the end of the sort order (max+1).
// Returns false without an error when an active button already has the
// name.
func (db *Database) CreateButton(ctx context.Context, name, url string) (bool, error) {
	_, err := db.Exec(ctx, createButtonQuery, name, url)
	if isUniqueViolation(err) {
		return false, nil
	}
	return err == nil, err
}

func (db *Database) Buttons(ctx context.Context, activeOnly bool) ([]*bot.Button, error) {
	query := listButtonsQuery
	if activeOnly {
		query = listActiveButtonsQuery
	}
	rows, err := db.Query(ctx, query)
	return dbutil.ConvertRowFn[*bot.Button](scanButton).NewRowIter(rows, err).AsList()
}

func (db *Database) ButtonByID(ctx context.Context, id int64) (*bot.Button, error) {
	btn, err := scanButton(db.QueryRow(ctx, getButtonByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return btn, err
}

// UpdateButton changes the name and/or URL; nil leaves a field as-is.
func (db *Database) UpdateButton(ctx context.Context, id int64, name, url *string) error {
	_, err := db.Exec(ctx, updateButtonQuery, name, url, id)
	return err
}

func (db *Database) ToggleButton(ctx context.Context, id int64) error {
	_, err := db.Exec(ctx, toggleButtonQuery, id)
	return err
}

func (db *Database) DeleteButton(ctx context.Context, id int64) error {
	_, err := db.Exec(ctx, deleteButtonQuery, id)
	return err
}
