// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"fmt"
	"strconv"
)

// Action tags carried in context while StateButtonTarget is active. The
// edit, toggle and delete flows share that state; the tag picks the
// branch.
const (
	actionEditButton   = "edit"
	actionToggleButton = "toggle"
	actionDeleteButton = "delete"
)

// cmdButtons shows the button management menu with the current table.
func (e *Engine) cmdButtons(ctx context.Context, _ *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	buttons, err := e.store.Buttons(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list buttons: %w", err)
	}
	e.reply(ctx, evt.Sender, formatButtonList(buttons))
	e.reply(ctx, evt.Sender, buttonMenu())
	return nil
}

func (e *Engine) cmdListButtons(ctx context.Context, _ *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	buttons, err := e.store.Buttons(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list buttons: %w", err)
	}
	e.reply(ctx, evt.Sender, formatButtonList(buttons))
	return nil
}

// cmdAddButton starts button creation: name, then URL.
func (e *Engine) cmdAddButton(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateButtonName)
	e.reply(ctx, evt.Sender, "Enter a name for the new button:")
	return nil
}

func (e *Engine) stepButtonName(ctx context.Context, sess *Session, evt *Event) error {
	name, err := textInput(evt)
	if err != nil {
		return err
	}
	sess.Put(ctxUsername, name)
	sess.Advance(StateButtonURL)
	e.reply(ctx, evt.Sender, "Enter the URL the button should open:")
	return nil
}

func (e *Engine) stepButtonURL(ctx context.Context, sess *Session, evt *Event) error {
	raw, err := textInput(evt)
	if err != nil {
		return err
	}
	url, err := NormalizeURL(raw)
	if err != nil {
		return err
	}
	name := sess.Value(ctxUsername)
	created, err := e.store.CreateButton(ctx, name, url)
	if err != nil {
		return fmt.Errorf("failed to create button: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: an active button named %q already exists", ErrConflict, name)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, fmt.Sprintf("✅ Button %q added with URL %s.", name, url))
	return nil
}

func (e *Engine) cmdEditButton(ctx context.Context, sess *Session, evt *Event, _ string) error {
	return e.startButtonTarget(ctx, sess, evt, actionEditButton, "edit")
}

func (e *Engine) cmdToggleButton(ctx context.Context, sess *Session, evt *Event, _ string) error {
	return e.startButtonTarget(ctx, sess, evt, actionToggleButton, "enable or disable")
}

func (e *Engine) cmdDeleteButton(ctx context.Context, sess *Session, evt *Event, _ string) error {
	return e.startButtonTarget(ctx, sess, evt, actionDeleteButton, "delete")
}

func (e *Engine) startButtonTarget(ctx context.Context, sess *Session, evt *Event, action, verb string) error {
	if err := e.requireAdmin(evt.Sender); err != nil {
		return err
	}
	sess.Put(ctxAction, action)
	sess.Advance(StateButtonTarget)
	e.reply(ctx, evt.Sender, fmt.Sprintf("Enter the id of the button to %s (see !listbuttons):", verb))
	return nil
}

func (e *Engine) stepButtonTarget(ctx context.Context, sess *Session, evt *Event) error {
	id, err := parseTargetID(evt)
	if err != nil {
		return err
	}
	btn, err := e.store.ButtonByID(ctx, id)
	if err != nil {
		return fmt.Errorf("button lookup failed: %w", err)
	}
	if btn == nil {
		return fmt.Errorf("%w: no button with id %d", ErrNotFound, id)
	}

	switch sess.Value(ctxAction) {
	case actionEditButton:
		sess.Put(ctxButtonID, strconv.FormatInt(id, 10))
		sess.Advance(StateButtonEditChoice)
		e.reply(ctx, evt.Sender, fmt.Sprintf("Editing %q. What should change? (name / url)", btn.Name))
		return nil
	case actionToggleButton:
		if err := e.store.ToggleButton(ctx, id); err != nil {
			return fmt.Errorf("failed to toggle button: %w", err)
		}
		sess.Reset()
		state := "enabled"
		if btn.Active {
			state = "disabled"
		}
		e.reply(ctx, evt.Sender, fmt.Sprintf("✅ Button %q is now %s.", btn.Name, state))
		return nil
	case actionDeleteButton:
		if err := e.store.DeleteButton(ctx, id); err != nil {
			return fmt.Errorf("failed to delete button: %w", err)
		}
		sess.Reset()
		e.reply(ctx, evt.Sender, fmt.Sprintf("✅ Button %q deleted.", btn.Name))
		return nil
	default:
		return fmt.Errorf("unexpected button action %q", sess.Value(ctxAction))
	}
}

func (e *Engine) stepButtonEditChoice(ctx context.Context, sess *Session, evt *Event) error {
	choice, err := textInput(evt)
	if err != nil {
		return err
	}
	switch choice {
	case "name":
		sess.Advance(StateButtonNewName)
		e.reply(ctx, evt.Sender, "Enter the new name:")
	case "url", "link":
		sess.Advance(StateButtonNewURL)
		e.reply(ctx, evt.Sender, "Enter the new URL:")
	default:
		return fmt.Errorf("%w: answer with name or url", ErrValidation)
	}
	return nil
}

func (e *Engine) stepButtonNewName(ctx context.Context, sess *Session, evt *Event) error {
	name, err := textInput(evt)
	if err != nil {
		return err
	}
	id, _ := strconv.ParseInt(sess.Value(ctxButtonID), 10, 64)
	if err := e.store.UpdateButton(ctx, id, &name, nil); err != nil {
		return fmt.Errorf("failed to update button: %w", err)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, "✅ Button renamed to "+name+".")
	return nil
}

func (e *Engine) stepButtonNewURL(ctx context.Context, sess *Session, evt *Event) error {
	raw, err := textInput(evt)
	if err != nil {
		return err
	}
	url, err := NormalizeURL(raw)
	if err != nil {
		return err
	}
	id, _ := strconv.ParseInt(sess.Value(ctxButtonID), 10, 64)
	if err := e.store.UpdateButton(ctx, id, nil, &url); err != nil {
		return fmt.Errorf("failed to update button: %w", err)
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, "✅ Button URL updated to "+url+".")
	return nil
}
