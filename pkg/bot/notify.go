// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Notifier pushes best-effort staff notifications on domain events. One
// attempt per event, no retry, no queue; every failure is logged and
// swallowed so the triggering flow's outcome is never affected.
type Notifier struct {
	store Store
	gw    Gateway
	log   zerolog.Logger
}

func NewNotifier(store Store, gw Gateway, log zerolog.Logger) *Notifier {
	return &Notifier{
		store: store,
		gw:    gw,
		log:   log.With().Str("component", "notify").Logger(),
	}
}

// LoginCompleted announces a successful sign-in.
func (n *Notifier) LoginCompleted(ctx context.Context, login string, identity Address) {
	n.send(ctx, fmt.Sprintf("🔑 %s signed in (%s).", login, identity))
}

// AccountRegistered announces a self-registered account.
func (n *Notifier) AccountRegistered(ctx context.Context, login string, identity Address) {
	n.send(ctx, fmt.Sprintf("📝 New account %s registered (%s).", login, identity))
}

// LinkUpdated announces a link change.
func (n *Notifier) LinkUpdated(ctx context.Context, login, link string) {
	n.send(ctx, fmt.Sprintf("📢 %s updated their link!\n🔗 %s", login, link))
}

func (n *Notifier) send(ctx context.Context, text string) {
	channel, err := n.store.Channel(ctx, ChannelLinks)
	if err != nil {
		n.log.Warn().Err(err).Msg("Channel lookup failed, dropping notification")
		return
	}
	if channel == "" {
		n.log.Debug().Msg("No staff channel configured, dropping notification")
		return
	}
	if err := n.gw.SendText(ctx, channel, text); err != nil {
		n.log.Warn().Err(err).Str("channel", string(channel)).Msg("Failed to deliver notification")
	}
}
