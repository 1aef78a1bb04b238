// Copyright 2024-2026 Aiku AI

// Package bot implements the conversational core of the link management
// bot: a per-user state machine that drives every multi-step dialog
// (login, registration, admin account edits, button management, broadcast
// composition) plus the fan-out delivery engine behind broadcasts.
//
// The package is transport-agnostic. All network traffic goes through the
// narrow [Gateway] interface and all persistence through [Store]; the
// Matrix-backed implementations live in pkg/matrixgw and pkg/bot/botdb.
//
// # Core Types
//
// [Engine] receives inbound [Event] values and dispatches them: a cancel
// signal always wins, an active session state selects a step handler, and
// an idle session falls back to command and menu-label dispatch.
//
// [Sessions] holds per-subject conversation state. Steps of one subject's
// flow are serialized; distinct subjects run concurrently.
//
// [Broadcaster] delivers one piece of content to many recipients
// sequentially with throttling and per-recipient failure accounting.
//
// [Notifier] pushes best-effort staff notifications on domain events
// (login, registration, link update). Its failures are logged and never
// reach the triggering flow.
package bot
