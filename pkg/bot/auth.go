// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"fmt"
)

// cmdLogin starts the sign-in flow: captcha, then username, then
// password. A fresh captcha is generated per attempt and stored in the
// flow context; codes are never reused across attempts.
func (e *Engine) cmdLogin(ctx context.Context, sess *Session, evt *Event, _ string) error {
	captcha := NewCaptcha(e.cfg.CaptchaLength)
	sess.Put(ctxCaptcha, captcha)
	sess.Advance(StateLoginCaptcha)
	e.reply(ctx, evt.Sender, fmt.Sprintf("🔐 First, type this code to prove you are human: %s", captcha))
	return nil
}

func (e *Engine) stepLoginCaptcha(ctx context.Context, sess *Session, evt *Event) error {
	input, err := textInput(evt)
	if err != nil {
		return err
	}
	if !CaptchaMatches(input, sess.Value(ctxCaptcha)) {
		// A failed captcha ends the attempt; the retry gets a fresh code.
		sess.Reset()
		e.reply(ctx, evt.Sender, "❌ Wrong code. Use !login to try again.")
		return nil
	}
	sess.Advance(StateLoginUsername)
	e.reply(ctx, evt.Sender, "Enter your username:")
	return nil
}

func (e *Engine) stepLoginUsername(ctx context.Context, sess *Session, evt *Event) error {
	username, err := textInput(evt)
	if err != nil {
		return err
	}
	sess.Put(ctxUsername, username)
	sess.Advance(StateLoginPassword)
	e.reply(ctx, evt.Sender, "Now enter your password:")
	return nil
}

func (e *Engine) stepLoginPassword(ctx context.Context, sess *Session, evt *Event) error {
	password, err := textInput(evt)
	if err != nil {
		return err
	}
	username := sess.Value(ctxUsername)

	acct, err := e.store.AccountByLogin(ctx, username)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}
	if acct == nil || acct.Password != password {
		// Credentials are checked once per flow; a failed check ends it.
		sess.Reset()
		e.reply(ctx, evt.Sender, "❌ Wrong username or password. Use !login to try again.")
		return nil
	}

	if err := e.bindIdentity(ctx, acct, evt.Sender, evt.SenderName); err != nil {
		return err
	}
	sess.Reset()

	e.reply(ctx, evt.Sender, fmt.Sprintf("✅ Signed in as %s.", acct.Login))
	e.showMenu(ctx, evt.Sender)
	e.notifier.LoginCompleted(ctx, acct.Login, evt.Sender)
	return nil
}

// bindIdentity attaches the subject's platform identity to the account
// with overwrite semantics: the account's previous identity is replaced,
// and any other account this identity was bound to is unbound first so
// an identity maps to at most one account.
func (e *Engine) bindIdentity(ctx context.Context, acct *Account, identity Address, displayName string) error {
	previous, err := e.store.AccountByIdentity(ctx, identity)
	if err != nil {
		return fmt.Errorf("identity lookup failed: %w", err)
	}
	if previous != nil && previous.ID != acct.ID {
		if err := e.store.UnbindIdentity(ctx, previous.ID); err != nil {
			return fmt.Errorf("failed to unbind previous account: %w", err)
		}
	}
	if err := e.store.BindIdentity(ctx, acct.ID, identity, displayName); err != nil {
		return fmt.Errorf("failed to bind identity: %w", err)
	}
	return nil
}

// cmdRegister starts self-registration: username, password, then
// confirmation.
func (e *Engine) cmdRegister(ctx context.Context, sess *Session, evt *Event, _ string) error {
	sess.Advance(StateRegisterUsername)
	e.reply(ctx, evt.Sender, "Pick a username:")
	return nil
}

func (e *Engine) stepRegisterUsername(ctx context.Context, sess *Session, evt *Event) error {
	username, err := textInput(evt)
	if err != nil {
		return err
	}
	if len(username) < e.cfg.MinLoginLength {
		return fmt.Errorf("%w: username must be at least %d characters", ErrValidation, e.cfg.MinLoginLength)
	}
	existing, err := e.store.AccountByLogin(ctx, username)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: that username is taken, pick another", ErrValidation)
	}
	sess.Put(ctxUsername, username)
	sess.Advance(StateRegisterPassword)
	e.reply(ctx, evt.Sender, "Choose a password:")
	return nil
}

func (e *Engine) stepRegisterPassword(ctx context.Context, sess *Session, evt *Event) error {
	password, err := textInput(evt)
	if err != nil {
		return err
	}
	if len(password) < e.cfg.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.cfg.MinPasswordLength)
	}
	sess.Put(ctxPassword, password)
	sess.Advance(StateRegisterConfirm)
	e.reply(ctx, evt.Sender, "Repeat the password:")
	return nil
}

func (e *Engine) stepRegisterConfirm(ctx context.Context, sess *Session, evt *Event) error {
	confirmation, err := textInput(evt)
	if err != nil {
		return err
	}
	if confirmation != sess.Value(ctxPassword) {
		// Back to the password step, keeping the chosen username.
		sess.Delete(ctxPassword)
		sess.Advance(StateRegisterPassword)
		e.reply(ctx, evt.Sender, "❌ Passwords do not match. Choose a password:")
		return nil
	}

	username := sess.Value(ctxUsername)
	created, err := e.store.CreateAccount(ctx, username, confirmation, evt.SenderName)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: the username %q was just taken, register again with another", ErrConflict, username)
	}

	acct, err := e.store.AccountByLogin(ctx, username)
	if err != nil || acct == nil {
		return fmt.Errorf("failed to load created account: %w", err)
	}
	if err := e.bindIdentity(ctx, acct, evt.Sender, evt.SenderName); err != nil {
		return err
	}
	sess.Reset()

	e.reply(ctx, evt.Sender, fmt.Sprintf("✅ Account %s created, you are signed in.", username))
	e.showMenu(ctx, evt.Sender)
	e.notifier.AccountRegistered(ctx, username, evt.Sender)
	return nil
}

// cmdLogout clears the 1:1 identity binding.
func (e *Engine) cmdLogout(ctx context.Context, _ *Session, evt *Event, _ string) error {
	acct, err := e.requireAccount(ctx, evt.Sender)
	if err != nil {
		return err
	}
	if err := e.store.UnbindIdentity(ctx, acct.ID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	e.reply(ctx, evt.Sender, "You are signed out.")
	e.reply(ctx, evt.Sender, signedOutMenu())
	return nil
}
