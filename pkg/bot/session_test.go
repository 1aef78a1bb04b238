// Copyright 2024-2026 Aiku AI

package bot

import (
	"testing"
	"time"
)

func TestSessionResetClearsStateAndContext(t *testing.T) {
	t.Parallel()
	sess := &Session{Subject: userAddr}
	sess.Advance(StateLoginPassword)
	sess.Put(ctxUsername, "alice")
	sess.Put(ctxCaptcha, "ABC23")

	sess.Reset()

	if sess.State() != StateIdle {
		t.Errorf("state: got %q, want idle", sess.State())
	}
	if sess.Value(ctxUsername) != "" || sess.Value(ctxCaptcha) != "" {
		t.Error("context survived reset")
	}
}

func TestSessionExpiry(t *testing.T) {
	t.Parallel()
	sess := &Session{Subject: userAddr, touched: time.Now().Add(-time.Hour)}

	if sess.expired(time.Minute) {
		t.Error("idle session reported expired")
	}
	sess.Advance(StateSetLink)
	if !sess.expired(time.Minute) {
		t.Error("stale flow not reported expired")
	}
	if sess.expired(0) {
		t.Error("zero timeout must never expire")
	}
}

func TestSessionsGetIsStable(t *testing.T) {
	t.Parallel()
	sessions := NewSessions()
	first := sessions.Get(userAddr)
	second := sessions.Get(userAddr)
	if first != second {
		t.Error("Get returned a different session for the same subject")
	}
	if sessions.Get(otherAddr) == first {
		t.Error("distinct subjects share a session")
	}
}

func TestActiveCount(t *testing.T) {
	t.Parallel()
	sessions := NewSessions()
	sessions.Get(userAddr).Advance(StateSetLink)
	sessions.Get(otherAddr)

	if got := sessions.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount: got %d, want 1", got)
	}
}
