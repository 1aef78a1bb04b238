// Copyright 2024-2026 Aiku AI

package bot

import "errors"

// Error kinds for flow outcomes. Step handlers wrap one of these with
// fmt.Errorf("...: %w", ...) and the engine decides what happens next
// with errors.Is.
var (
	// ErrValidation marks bad or missing input. Recoverable: the engine
	// re-prompts and the session keeps its current state.
	ErrValidation = errors.New("invalid input")
	// ErrUnauthorized marks a privilege failure. Fatal to the flow; the
	// session returns to idle and no partial context survives.
	ErrUnauthorized = errors.New("not allowed")
	// ErrNotFound marks a referenced entity that vanished between prompt
	// and submission. Fatal to the flow.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation surfacing at finalize
	// time. Fatal to the flow; reported verbatim so the operator can
	// retry with a different value in a fresh flow.
	ErrConflict = errors.New("already exists")
	// ErrTransport marks a failed gateway call. Recoverable per recipient
	// inside a broadcast, fatal in a single-operation flow.
	ErrTransport = errors.New("delivery failed")
)
