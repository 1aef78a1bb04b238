// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"fmt"
)

// cmdMyLink shows the caller's stored link.
func (e *Engine) cmdMyLink(ctx context.Context, _ *Session, evt *Event, _ string) error {
	acct, err := e.requireAccount(ctx, evt.Sender)
	if err != nil {
		return err
	}
	if acct.Link == "" {
		e.reply(ctx, evt.Sender, "You have no link yet. Use !setlink to add one.")
		return nil
	}
	e.reply(ctx, evt.Sender, "🔗 Your current link: "+acct.Link)
	return nil
}

// cmdSetLink starts the single-prompt link update flow.
func (e *Engine) cmdSetLink(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if _, err := e.requireAccount(ctx, evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateSetLink)
	e.reply(ctx, evt.Sender, "Send your link or text. A service name, a domain, or any other text works.")
	return nil
}

func (e *Engine) stepSetLink(ctx context.Context, sess *Session, evt *Event) error {
	value, err := textInput(evt)
	if err != nil {
		return err
	}
	// URL-like values get the missing scheme fixed up; plain text is
	// stored as-is.
	if LooksLikeURL(value) {
		value, err = NormalizeURL(value)
		if err != nil {
			return err
		}
	}

	acct, err := e.requireAccount(ctx, evt.Sender)
	if err != nil {
		return err
	}
	if err := e.store.UpdateLink(ctx, acct.ID, value); err != nil {
		return fmt.Errorf("failed to store link: %w", err)
	}
	sess.Reset()

	e.reply(ctx, evt.Sender, "✅ Your link is now: "+value)
	e.notifier.LinkUpdated(ctx, acct.Login, value)
	return nil
}

// cmdWrite starts the free-form message relay flow.
func (e *Engine) cmdWrite(ctx context.Context, sess *Session, evt *Event, _ string) error {
	if _, err := e.requireAccount(ctx, evt.Sender); err != nil {
		return err
	}
	sess.Advance(StateComposeMessage)
	e.reply(ctx, evt.Sender, "Write your message. Text and attachments are both fine.")
	return nil
}

func (e *Engine) stepComposeMessage(ctx context.Context, sess *Session, evt *Event) error {
	if evt.Kind != EventText && evt.Kind != EventMedia {
		return fmt.Errorf("%w: send a text or media message", ErrValidation)
	}
	if evt.Kind == EventText {
		if _, err := textInput(evt); err != nil {
			return err
		}
	}

	acct, err := e.requireAccount(ctx, evt.Sender)
	if err != nil {
		return err
	}
	channel, err := e.store.Channel(ctx, ChannelMessages)
	if err != nil {
		return fmt.Errorf("channel lookup failed: %w", err)
	}
	if channel == "" {
		return fmt.Errorf("%w: the staff channel is not configured yet, try later", ErrNotFound)
	}

	header := fmt.Sprintf("✉️ Message from %s (%s):", acct.Login, evt.Sender)
	if err := e.gw.SendText(ctx, channel, header); err != nil {
		return fmt.Errorf("failed to reach the staff channel: %w", err)
	}
	if err := e.gw.RelayCopy(ctx, channel, evt); err != nil {
		return fmt.Errorf("failed to relay your message: %w", err)
	}
	sess.Reset()

	e.reply(ctx, evt.Sender, "✅ Your message was sent to staff.")
	return nil
}
