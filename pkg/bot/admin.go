// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// parseTargetID reads an account or button id typed by the operator.
func parseTargetID(evt *Event) (int64, error) {
	input, err := textInput(evt)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", ErrValidation, input)
	}
	return id, nil
}

// cmdUsers prints the account roster.
func (e *Engine) cmdUsers(ctx context.Context, _ *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	e.reply(ctx, evt.Sender, formatAccountList(accounts))
	return nil
}

// cmdAddUser starts account creation: login, then password.
func (e *Engine) cmdAddUser(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateAddUserLogin)
	e.reply(ctx, evt.Sender, "Enter a login for the new account:")
	return nil
}

func (e *Engine) stepAddUserLogin(ctx context.Context, sess *Session, evt *Event) error {
	login, err := textInput(evt)
	if err != nil {
		return err
	}
	if len(login) < e.cfg.MinLoginLength {
		return fmt.Errorf("%w: login must be at least %d characters", ErrValidation, e.cfg.MinLoginLength)
	}
	existing, err := e.store.AccountByLogin(ctx, login)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: an account named %q already exists, enter another login", ErrValidation, login)
	}
	sess.Put(ctxUsername, login)
	sess.Advance(StateAddUserPassword)
	e.reply(ctx, evt.Sender, "Enter a password for the new account:")
	return nil
}

func (e *Engine) stepAddUserPassword(ctx context.Context, sess *Session, evt *Event) error {
	password, err := textInput(evt)
	if err != nil {
		return err
	}
	login := sess.Value(ctxUsername)
	created, err := e.store.CreateAccount(ctx, login, password, "")
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: the login %q was just taken", ErrConflict, login)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, fmt.Sprintf("✅ Account created.\nLogin: %s\nPassword: %s", login, password))
	return nil
}

// cmdEditUser starts the account edit flow: target id, then the field
// choice, then the new value.
func (e *Engine) cmdEditUser(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateEditUserTarget)
	e.reply(ctx, evt.Sender, "Enter the id of the account to edit (see !users):")
	return nil
}

func (e *Engine) stepEditUserTarget(ctx context.Context, sess *Session, evt *Event) error {
	id, err := parseTargetID(evt)
	if err != nil {
		return err
	}
	acct, err := e.store.AccountByID(ctx, id)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}
	if acct == nil {
		return fmt.Errorf("%w: no account with id %d", ErrNotFound, id)
	}
	sess.Put(ctxTargetID, strconv.FormatInt(id, 10))
	sess.Advance(StateEditUserAction)
	e.reply(ctx, evt.Sender, fmt.Sprintf("Editing %s. What should change? (login / password)", acct.Login))
	return nil
}

func (e *Engine) stepEditUserAction(ctx context.Context, sess *Session, evt *Event) error {
	choice, err := textInput(evt)
	if err != nil {
		return err
	}
	switch choice {
	case "login":
		sess.Advance(StateEditUserNewLogin)
		e.reply(ctx, evt.Sender, "Enter the new login:")
	case "password":
		sess.Advance(StateEditUserNewPassword)
		e.reply(ctx, evt.Sender, "Enter the new password:")
	default:
		return fmt.Errorf("%w: answer with login or password", ErrValidation)
	}
	return nil
}

func (e *Engine) stepEditUserNewLogin(ctx context.Context, sess *Session, evt *Event) error {
	newLogin, err := textInput(evt)
	if err != nil {
		return err
	}
	if len(newLogin) < e.cfg.MinLoginLength {
		return fmt.Errorf("%w: login must be at least %d characters", ErrValidation, e.cfg.MinLoginLength)
	}
	id, _ := strconv.ParseInt(sess.Value(ctxTargetID), 10, 64)
	updated, err := e.store.UpdateLogin(ctx, id, newLogin)
	if err != nil {
		return fmt.Errorf("failed to update login: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: an account named %q already exists", ErrConflict, newLogin)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, "✅ Login updated to "+newLogin+".")
	return nil
}

func (e *Engine) stepEditUserNewPassword(ctx context.Context, sess *Session, evt *Event) error {
	newPassword, err := textInput(evt)
	if err != nil {
		return err
	}
	if len(newPassword) < e.cfg.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.cfg.MinPasswordLength)
	}
	id, _ := strconv.ParseInt(sess.Value(ctxTargetID), 10, 64)
	updated, err := e.store.UpdatePassword(ctx, id, newPassword)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: the account no longer exists", ErrNotFound)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, "✅ Password updated.")
	return nil
}

// cmdDeleteUser starts the single-step deletion flow.
func (e *Engine) cmdDeleteUser(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateDeleteUserTarget)
	e.reply(ctx, evt.Sender, "Enter the id of the account to delete (see !users):")
	return nil
}

func (e *Engine) stepDeleteUserTarget(ctx context.Context, sess *Session, evt *Event) error {
	id, err := parseTargetID(evt)
	if err != nil {
		return err
	}
	deleted, err := e.store.DeleteAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: no account with id %d", ErrNotFound, id)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, "✅ Account deleted.")
	return nil
}

// cmdSetChannel binds a directory channel. The kind comes with the
// command ("!setchannel links"); the channel id is prompted for and
// verified with a probe round trip before it is stored.
func (e *Engine) cmdSetChannel(ctx context.Context, sess *Session, evt *Event, args string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	kind := ChannelKind(args)
	if kind != ChannelLinks && kind != ChannelMessages {
		return fmt.Errorf("%w: usage: !setchannel <links|messages>", ErrValidation)
	}
	sess.Put(ctxChannelKind, string(kind))
	sess.Advance(StateChannelID)
	e.reply(ctx, evt.Sender, fmt.Sprintf("Enter the %s channel (room id or alias). I must already be a member.", kind))
	return nil
}

func (e *Engine) stepChannelID(ctx context.Context, sess *Session, evt *Event) error {
	input, err := textInput(evt)
	if err != nil {
		return err
	}
	channel := Address(input)

	// The only transition gated on an external round trip: a probe
	// message is sent and immediately retracted before the binding is
	// accepted.
	if err := e.gw.Probe(ctx, channel); err != nil {
		return fmt.Errorf("could not post to %s: %w", channel, err)
	}

	kind := ChannelKind(sess.Value(ctxChannelKind))
	if err := e.store.SetChannel(ctx, kind, channel); err != nil {
		return fmt.Errorf("failed to store channel: %w", err)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, fmt.Sprintf("✅ The %s channel is now %s.", kind, channel))
	return nil
}

// cmdGreeting starts the greeting edit flow.
func (e *Engine) cmdGreeting(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateGreetingText)
	e.reply(ctx, evt.Sender, "Send the new greeting text shown on !start:")
	return nil
}

func (e *Engine) stepGreetingText(ctx context.Context, sess *Session, evt *Event) error {
	text, err := textInput(evt)
	if err != nil {
		return err
	}
	if err := e.store.PutSetting(ctx, SettingGreeting, text); err != nil {
		return fmt.Errorf("failed to store greeting: %w", err)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, "✅ Greeting updated.")
	return nil
}

// cmdBroadcast starts a fan-out to every account with a bound identity.
func (e *Engine) cmdBroadcast(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateBroadcastContent)
	e.reply(ctx, evt.Sender, "Send the content to broadcast. Text and attachments are both fine.")
	return nil
}

func (e *Engine) stepBroadcastContent(ctx context.Context, sess *Session, evt *Event) error {
	content, ok := ContentFromEvent(evt)
	if !ok {
		return fmt.Errorf("%w: send a text or media message", ErrValidation)
	}
	if content.Media == nil {
		if _, err := textInput(evt); err != nil {
			return err
		}
	}

	recipients, err := e.broadcastRecipients(ctx, evt.Sender)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		sess.Reset()
		e.reply(ctx, evt.Sender, "Nobody to deliver to: no other account has a bound identity.")
		return nil
	}

	// The flow ends here; delivery continues on its own and runs to
	// completion over this recipient snapshot.
	sess.Reset()
	initiator := evt.Sender
	jobID := uuid.NewString()
	e.reply(ctx, initiator, fmt.Sprintf("📢 Broadcasting to %d recipients...", len(recipients)))

	go func() {
		tally := e.bcast.Run(context.Background(), jobID, content, recipients, func(done, total int, t Tally) {
			e.reply(context.Background(), initiator, fmt.Sprintf("📤 %d/%d processed (%d sent, %d failed)", done, total, t.Sent, t.Failed))
		})
		e.reply(context.Background(), initiator, fmt.Sprintf("📢 Broadcast finished: %d sent, %d failed.", tally.Sent, tally.Failed))
	}()
	return nil
}

// broadcastRecipients snapshots every bound identity except the
// initiator's own.
func (e *Engine) broadcastRecipients(ctx context.Context, initiator Address) ([]Address, error) {
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	recipients := make([]Address, 0, len(accounts))
	for _, acct := range accounts {
		if acct.Identity == "" || acct.Identity == initiator {
			continue
		}
		recipients = append(recipients, acct.Identity)
	}
	return recipients, nil
}

// cmdSend starts single-target delivery: account id, then content.
func (e *Engine) cmdSend(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateSendTarget)
	e.reply(ctx, evt.Sender, "Enter the id of the account to message (see !users):")
	return nil
}

func (e *Engine) stepSendTarget(ctx context.Context, sess *Session, evt *Event) error {
	id, err := parseTargetID(evt)
	if err != nil {
		return err
	}
	acct, err := e.store.AccountByID(ctx, id)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}
	if acct == nil {
		return fmt.Errorf("%w: no account with id %d", ErrNotFound, id)
	}
	sess.Put(ctxTargetID, strconv.FormatInt(id, 10))
	sess.Advance(StateSendContent)
	e.reply(ctx, evt.Sender, fmt.Sprintf("Send the content for %s:", acct.Login))
	return nil
}

func (e *Engine) stepSendContent(ctx context.Context, sess *Session, evt *Event) error {
	content, ok := ContentFromEvent(evt)
	if !ok {
		return fmt.Errorf("%w: send a text or media message", ErrValidation)
	}
	if content.Media == nil {
		if _, err := textInput(evt); err != nil {
			return err
		}
	}

	id, _ := strconv.ParseInt(sess.Value(ctxTargetID), 10, 64)
	acct, err := e.store.AccountByID(ctx, id)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}
	if acct == nil {
		return fmt.Errorf("%w: the account vanished mid-flow", ErrNotFound)
	}

	sess.Reset()
	if acct.Identity == "" {
		// Unbound target: reported as a failed delivery without any
		// gateway call.
		e.reply(ctx, evt.Sender, "📢 Delivery finished: 0 sent, 1 failed (no bound identity).")
		return nil
	}

	tally := e.bcast.Run(ctx, uuid.NewString(), content, []Address{acct.Identity}, nil)
	e.reply(ctx, evt.Sender, fmt.Sprintf("📢 Delivery finished: %d sent, %d failed.", tally.Sent, tally.Failed))
	return nil
}
