// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type stepFunc func(ctx context.Context, sess *Session, evt *Event) error

type commandFunc func(ctx context.Context, sess *Session, evt *Event, args string) error

// Engine is the per-user conversational state machine. One inbound event
// runs one step: the universal cancel signal first, then the handler
// bound to the session's current state, then idle command and menu-label
// dispatch.
type Engine struct {
	log      zerolog.Logger
	cfg      *Config
	store    Store
	gw       Gateway
	sessions *Sessions
	notifier *Notifier
	bcast    *Broadcaster

	steps    map[State]stepFunc
	commands map[string]commandFunc
}

// NewEngine wires the conversational core. The store and gateway are the
// only collaborators; everything else is derived.
func NewEngine(cfg *Config, store Store, gw Gateway, log zerolog.Logger) *Engine {
	e := &Engine{
		log:      log.With().Str("component", "engine").Logger(),
		cfg:      cfg,
		store:    store,
		gw:       gw,
		sessions: NewSessions(),
		notifier: NewNotifier(store, gw, log),
		bcast:    NewBroadcaster(gw, log, cfg.Broadcast.Delay, cfg.Broadcast.ProgressEvery),
	}

	e.steps = map[State]stepFunc{
		StateLoginCaptcha:  e.stepLoginCaptcha,
		StateLoginUsername: e.stepLoginUsername,
		StateLoginPassword: e.stepLoginPassword,

		StateRegisterUsername: e.stepRegisterUsername,
		StateRegisterPassword: e.stepRegisterPassword,
		StateRegisterConfirm:  e.stepRegisterConfirm,

		StateSetLink:        e.stepSetLink,
		StateComposeMessage: e.stepComposeMessage,

		StateAddUserLogin:        e.stepAddUserLogin,
		StateAddUserPassword:     e.stepAddUserPassword,
		StateEditUserTarget:      e.stepEditUserTarget,
		StateEditUserAction:      e.stepEditUserAction,
		StateEditUserNewLogin:    e.stepEditUserNewLogin,
		StateEditUserNewPassword: e.stepEditUserNewPassword,
		StateDeleteUserTarget:    e.stepDeleteUserTarget,

		StateBroadcastContent: e.stepBroadcastContent,
		StateSendTarget:       e.stepSendTarget,
		StateSendContent:      e.stepSendContent,

		StateChannelID:    e.stepChannelID,
		StateGreetingText: e.stepGreetingText,

		StateButtonName:       e.stepButtonName,
		StateButtonURL:        e.stepButtonURL,
		StateButtonTarget:     e.stepButtonTarget,
		StateButtonEditChoice: e.stepButtonEditChoice,
		StateButtonNewName:    e.stepButtonNewName,
		StateButtonNewURL:     e.stepButtonNewURL,
	}

	e.commands = map[string]commandFunc{
		"start":    e.cmdStart,
		"help":     e.cmdHelp,
		"login":    e.cmdLogin,
		"register": e.cmdRegister,
		"logout":   e.cmdLogout,
		"link":     e.cmdMyLink,
		"setlink":  e.cmdSetLink,
		"write":    e.cmdWrite,

		"users":      e.cmdUsers,
		"adduser":    e.cmdAddUser,
		"edituser":   e.cmdEditUser,
		"deluser":    e.cmdDeleteUser,
		"broadcast":  e.cmdBroadcast,
		"send":       e.cmdSend,
		"setchannel": e.cmdSetChannel,
		"greeting":   e.cmdGreeting,

		"buttons":      e.cmdButtons,
		"listbuttons":  e.cmdListButtons,
		"addbutton":    e.cmdAddButton,
		"editbutton":   e.cmdEditButton,
		"togglebutton": e.cmdToggleButton,
		"delbutton":    e.cmdDeleteButton,
	}

	return e
}

// Sessions exposes the session table for ops endpoints.
func (e *Engine) Sessions() *Sessions { return e.sessions }

// Handle runs one inbound event through the state machine. Events for
// the same subject are serialized on the session mutex; events for
// different subjects run concurrently.
func (e *Engine) Handle(ctx context.Context, evt *Event) {
	sess := e.sessions.Get(evt.Sender)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.expired(e.cfg.Session.IdleTimeout) {
		e.log.Debug().Str("subject", string(sess.Subject)).Msg("Expiring abandoned flow")
		sess.Reset()
	}
	sess.touched = time.Now()

	// Cancel wins over everything, from any state.
	if evt.Kind == EventCancel || (evt.Kind == EventText && strings.TrimSpace(evt.Text) == LabelCancel) {
		e.handleCancel(ctx, sess, evt)
		return
	}

	var err error
	if state := sess.State(); state != StateIdle {
		step, ok := e.steps[state]
		if !ok {
			e.log.Error().Str("state", string(state)).Msg("No handler for session state")
			sess.Reset()
			e.reply(ctx, evt.Sender, "❌ Something went wrong, please start over.")
			return
		}
		err = step(ctx, sess, evt)
	} else {
		err = e.dispatchIdle(ctx, sess, evt)
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		// Recoverable: re-prompt, same state, the subject retries.
		e.reply(ctx, evt.Sender, "❌ "+errorText(err)+"\nTry again, or "+LabelCancel+".")
	default:
		// Authorization, not-found, conflict and transport failures all
		// terminate the flow. Nothing is retried automatically.
		sess.Reset()
		e.reply(ctx, evt.Sender, "❌ "+errorText(err))
		e.log.Warn().Err(err).
			Str("subject", string(evt.Sender)).
			Msg("Flow terminated with error")
	}
}

// dispatchIdle handles an event with no flow in progress: explicit
// commands first, then menu labels, then the dynamic custom-button table.
func (e *Engine) dispatchIdle(ctx context.Context, sess *Session, evt *Event) error {
	command, args := "", ""
	switch evt.Kind {
	case EventCommand:
		command, args = evt.Command, strings.TrimSpace(evt.Args)
	case EventText:
		text := strings.TrimSpace(evt.Text)
		binding, ok := labelBindings[text]
		if !ok {
			return e.dispatchButtonLabel(ctx, evt, text)
		}
		command, args = binding.command, binding.args
	default:
		e.reply(ctx, evt.Sender, "Use the menu or !help to see available commands.")
		return nil
	}

	fn, ok := e.commands[command]
	if !ok {
		e.reply(ctx, evt.Sender, "Unknown command. Use !help to see what I can do.")
		return nil
	}
	return fn(ctx, sess, evt, args)
}

// dispatchButtonLabel matches free text against the admin-managed button
// table, consulted only after every static command and label fails to
// match.
func (e *Engine) dispatchButtonLabel(ctx context.Context, evt *Event, text string) error {
	buttons, err := e.store.Buttons(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to load buttons: %w", err)
	}
	for _, btn := range buttons {
		if btn.Name == text {
			e.reply(ctx, evt.Sender, btn.URL)
			return nil
		}
	}
	e.reply(ctx, evt.Sender, "Use the menu or !help to see available commands.")
	return nil
}

func (e *Engine) handleCancel(ctx context.Context, sess *Session, evt *Event) {
	if sess.State() == StateIdle {
		e.reply(ctx, evt.Sender, "Nothing to cancel.")
		return
	}
	sess.Reset()
	e.reply(ctx, evt.Sender, "Action cancelled.")
	e.showMenu(ctx, evt.Sender)
}

// showMenu sends the menu matching the subject's current standing.
func (e *Engine) showMenu(ctx context.Context, to Address) {
	if e.cfg.IsAdmin(to) {
		e.reply(ctx, to, adminMenu())
		return
	}
	acct, err := e.store.AccountByIdentity(ctx, to)
	if err != nil || acct == nil {
		e.reply(ctx, to, signedOutMenu())
		return
	}
	buttons, _ := e.store.Buttons(ctx, true)
	e.reply(ctx, to, mainMenu(buttons))
}

// reply sends a message to the subject, logging delivery failures. A
// failed prompt is not a flow error: the subject simply retries.
func (e *Engine) reply(ctx context.Context, to Address, text string) {
	if err := e.gw.SendText(ctx, to, text); err != nil {
		e.log.Warn().Err(err).Str("to", string(to)).Msg("Failed to send reply")
	}
}

// requireAccount resolves the calling subject to a bound account.
func (e *Engine) requireAccount(ctx context.Context, subject Address) (*Account, error) {
	acct, err := e.store.AccountByIdentity(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("%w: you are not signed in, use !login first", ErrUnauthorized)
	}
	return acct, nil
}

// requireAdmin gates admin flows. Evaluated before the first prompt is
// shown, so an unauthorized subject never enters the flow.
func (e *Engine) requireAdmin(subject Address) error {
	if !e.cfg.IsAdmin(subject) {
		return fmt.Errorf("%w: this command is for operators only", ErrUnauthorized)
	}
	return nil
}

// textInput extracts trimmed free text from an event. Empty after trim
// is always a validation failure, never silently accepted.
func textInput(evt *Event) (string, error) {
	if evt.Kind != EventText {
		return "", fmt.Errorf("%w: please send a text message", ErrValidation)
	}
	text := strings.TrimSpace(evt.Text)
	if text == "" {
		return "", fmt.Errorf("%w: the value cannot be empty", ErrValidation)
	}
	return text, nil
}

// errorText renders an error kind for the subject without the sentinel
// prefix noise.
func errorText(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrUnauthorized, ErrNotFound, ErrConflict, ErrTransport} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func (e *Engine) cmdStart(ctx context.Context, _ *Session, evt *Event, _ string) error {
	greeting, err := e.store.Setting(ctx, SettingGreeting)
	if err != nil || greeting == "" {
		greeting = e.cfg.Greeting
	}
	e.reply(ctx, evt.Sender, greeting)
	e.showMenu(ctx, evt.Sender)
	return nil
}

func (e *Engine) cmdHelp(ctx context.Context, _ *Session, evt *Event, _ string) error {
	lines := []string{
		"Commands:",
		"  !login - sign in to your account",
		"  !register - create an account",
		"  !link - show your current link",
		"  !setlink - update your link",
		"  !write - send a message to staff",
		"  !logout - sign out",
		"  !cancel - abort the current action",
	}
	if e.cfg.IsAdmin(evt.Sender) {
		lines = append(lines,
			"Admin:",
			"  !users, !adduser, !edituser, !deluser",
			"  !broadcast, !send",
			"  !setchannel <links|messages>, !greeting",
			"  !buttons, !addbutton, !editbutton, !togglebutton, !delbutton",
		)
	}
	e.reply(ctx, evt.Sender, strings.Join(lines, "\n"))
	return nil
}
