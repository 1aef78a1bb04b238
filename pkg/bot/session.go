// Copyright 2024-2026 Aiku AI

package bot

import (
	"sync"
	"time"
)

// State names one step of a multi-step flow. StateIdle means no flow is
// in progress.
type State string

const (
	StateIdle State = ""

	// Login: captcha -> username -> password.
	StateLoginCaptcha  State = "login_captcha"
	StateLoginUsername State = "login_username"
	StateLoginPassword State = "login_password"

	// Registration: username -> password -> confirmation. Confirmation
	// mismatch goes back to the password step, the one controlled
	// back-edge in the model.
	StateRegisterUsername State = "register_username"
	StateRegisterPassword State = "register_password"
	StateRegisterConfirm  State = "register_confirm"

	// User flows.
	StateSetLink        State = "set_link"
	StateComposeMessage State = "compose_message"

	// Admin account management.
	StateAddUserLogin        State = "add_user_login"
	StateAddUserPassword     State = "add_user_password"
	StateEditUserTarget      State = "edit_user_target"
	StateEditUserAction      State = "edit_user_action"
	StateEditUserNewLogin    State = "edit_user_new_login"
	StateEditUserNewPassword State = "edit_user_new_password"
	StateDeleteUserTarget    State = "delete_user_target"

	// Admin broadcast (all recipients) and single-target delivery.
	StateBroadcastContent State = "broadcast_content"
	StateSendTarget       State = "send_target"
	StateSendContent      State = "send_content"

	// Admin channel binding and greeting.
	StateChannelID    State = "channel_id"
	StateGreetingText State = "greeting_text"

	// Custom button management. StateButtonTarget is shared by the edit,
	// toggle and delete flows; the ctxAction tag disambiguates.
	StateButtonName       State = "button_name"
	StateButtonURL        State = "button_url"
	StateButtonTarget     State = "button_target"
	StateButtonEditChoice State = "button_edit_choice"
	StateButtonNewName    State = "button_new_name"
	StateButtonNewURL     State = "button_new_url"
)

// Context keys accumulated across the steps of one flow.
const (
	ctxCaptcha     = "captcha"
	ctxUsername    = "username"
	ctxPassword    = "password"
	ctxTargetID    = "target_id"
	ctxAction      = "action"
	ctxChannelKind = "channel_kind"
	ctxButtonID    = "button_id"
)

// Session is the conversational state of one subject. Fields are only
// touched while the session mutex is held; the engine takes it for the
// whole duration of one event so steps of the same subject never
// interleave.
type Session struct {
	Subject Address

	mu      sync.Mutex
	state   State
	data    map[string]string
	touched time.Time
}

func (s *Session) State() State { return s.state }

// Advance moves the session to the given state without touching context.
func (s *Session) Advance(state State) {
	s.state = state
}

// Put merges one value into the flow context.
func (s *Session) Put(key, value string) {
	if s.data == nil {
		s.data = make(map[string]string)
	}
	s.data[key] = value
}

// Value reads one context value, "" when absent.
func (s *Session) Value(key string) string {
	return s.data[key]
}

// Delete removes one context value.
func (s *Session) Delete(key string) {
	delete(s.data, key)
}

// Reset returns the session to idle and drops the whole context. The two
// always change together so no event can observe idle state with stale
// context.
func (s *Session) Reset() {
	s.state = StateIdle
	s.data = nil
}

// expired reports whether a non-idle session has been untouched for
// longer than the configured idle timeout. Zero timeout never expires.
func (s *Session) expired(timeout time.Duration) bool {
	return timeout > 0 && s.state != StateIdle && time.Since(s.touched) > timeout
}

// Sessions is the process-wide session table, keyed by subject identity.
// Sessions are created lazily on first interaction and never removed;
// an idle session is just an empty one.
type Sessions struct {
	mu       sync.Mutex
	sessions map[Address]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[Address]*Session)}
}

// Get returns the session for the subject, creating it on first use.
func (s *Sessions) Get(subject Address) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[subject]
	if !ok {
		sess = &Session{Subject: subject}
		s.sessions[subject] = sess
	}
	return sess
}

// ActiveCount returns the number of subjects currently inside a flow.
func (s *Sessions) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		sess.mu.Lock()
		if sess.state != StateIdle {
			n++
		}
		sess.mu.Unlock()
	}
	return n
}
