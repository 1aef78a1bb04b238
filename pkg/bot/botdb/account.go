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
	accountColumns = "id, login, password, identity, link, display_name"

	getAccountByIdentityQuery = "SELECT " + accountColumns + " FROM account WHERE identity = $1"
	getAccountByLoginQuery    = "SELECT " + accountColumns + " FROM account WHERE login = $1"
	getAccountByIDQuery       = "SELECT " + accountColumns + " FROM account WHERE id = $1"
	listAccountsQuery         = "SELECT " + accountColumns + " FROM account ORDER BY id"
	createAccountQuery        = "INSERT INTO account (login, password, display_name) VALUES ($1, $2, $3)"
	bindIdentityQuery         = "UPDATE account SET identity = $1, display_name = $2 WHERE id = $3"
	unbindIdentityQuery       = "UPDATE account SET identity = NULL WHERE id = $1"
	updateLinkQuery           = "UPDATE account SET link = $1 WHERE id = $2"
	updateLoginQuery          = "UPDATE account SET login = $1 WHERE id = $2"
	updatePasswordQuery       = "UPDATE account SET password = $1 WHERE id = $2"
	deleteAccountQuery        = "DELETE FROM account WHERE id = $1"
)

func scanAccount(row dbutil.Scannable) (*bot.Account, error) {
	var acct bot.Account
	var identity sql.NullString
	err := row.Scan(&acct.ID, &acct.Login, &acct.Password, &identity, &acct.Link, &acct.DisplayName)
	if err != nil {
		return nil, err
	}
	acct.Identity = bot.Address(identity.String)
	return &acct, nil
}

func (db *Database) getAccount(ctx context.Context, query string, args ...any) (*bot.Account, error) {
	acct, err := scanAccount(db.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return acct, err
}

func (db *Database) AccountByIdentity(ctx context.Context, identity bot.Address) (*bot.Account, error) {
	return db.getAccount(ctx, getAccountByIdentityQuery, string(identity))
}

func (db *Database) AccountByLogin(ctx context.Context, login string) (*bot.Account, error) {
	return db.getAccount(ctx, getAccountByLoginQuery, login)
}

func (db *Database) AccountByID(ctx context.Context, id int64) (*bot.Account, error) {
	return db.getAccount(ctx, getAccountByIDQuery, id)
}

func (db *Database) ListAccounts(ctx context.Context) ([]*bot.Account, error) {
	rows, err := db.Query(ctx, listAccountsQuery)
	return dbutil.ConvertRowFn[*bot.Account](scanAccount).NewRowIter(rows, err).AsList()
}

// CreateAccount inserts a new account. Returns false without an error on
// a login collision.
func (db *Database) CreateAccount(ctx context.Context, login, password, displayName string) (bool, error) {
	_, err := db.Exec(ctx, createAccountQuery, login, password, displayName)
	if isUniqueViolation(err) {
		return false, nil
	}
	return err == nil, err
}

// BindIdentity overwrites the account's platform identity. The caller is
// responsible for unbinding the identity from any other account first.
func (db *Database) BindIdentity(ctx context.Context, accountID int64, identity bot.Address, displayName string) error {
	_, err := db.Exec(ctx, bindIdentityQuery, string(identity), displayName, accountID)
	return err
}

func (db *Database) UnbindIdentity(ctx context.Context, accountID int64) error {
	_, err := db.Exec(ctx, unbindIdentityQuery, accountID)
	return err
}

func (db *Database) UpdateLink(ctx context.Context, accountID int64, link string) error {
	_, err := db.Exec(ctx, updateLinkQuery, link, accountID)
	return err
}

// UpdateLogin renames an account. Returns false on a collision with an
// existing login or when the account is gone.
func (db *Database) UpdateLogin(ctx context.Context, accountID int64, newLogin string) (bool, error) {
	res, err := db.Exec(ctx, updateLoginQuery, newLogin, accountID)
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (db *Database) UpdatePassword(ctx context.Context, accountID int64, newPassword string) (bool, error) {
	res, err := db.Exec(ctx, updatePasswordQuery, newPassword, accountID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (db *Database) DeleteAccount(ctx context.Context, accountID int64) (bool, error) {
	res, err := db.Exec(ctx, deleteAccountQuery, accountID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}
