// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNotifierSendsToConfiguredChannel(t *testing.T) {
	t.Parallel()
	store := newMockStore()
	gw := newMockGateway()
	_ = store.SetChannel(context.Background(), ChannelLinks, linksChan)
	n := NewNotifier(store, gw, zerolog.Nop())

	n.AccountRegistered(context.Background(), "alice", userAddr)

	text := gw.lastTextTo(t, linksChan)
	if !strings.Contains(text, "alice") || !strings.Contains(text, string(userAddr)) {
		t.Errorf("got %q, want login and identity mentioned", text)
	}
}

func TestNotifierDropsWithoutChannel(t *testing.T) {
	t.Parallel()
	store := newMockStore()
	gw := newMockGateway()
	n := NewNotifier(store, gw, zerolog.Nop())

	n.LoginCompleted(context.Background(), "alice", userAddr)

	if got := len(gw.Sent()); got != 0 {
		t.Errorf("got %d deliveries, want none", got)
	}
}

func TestNotifierSwallowsDeliveryFailure(t *testing.T) {
	t.Parallel()
	store := newMockStore()
	gw := newMockGateway()
	_ = store.SetChannel(context.Background(), ChannelLinks, linksChan)
	gw.failTo[linksChan] = errors.New("unreachable")
	n := NewNotifier(store, gw, zerolog.Nop())

	// Must not panic or propagate anything.
	n.LinkUpdated(context.Background(), "alice", "https://example.com")
}
