// Copyright 2024-2026 Aiku AI

package bot

import "strings"

// Address identifies a deliverable destination: either a subject identity
// (Matrix user ID, "@user:server") or a channel ("!room:server" or
// "#alias:server"). The gateway resolves user addresses to direct-message
// rooms internally.
type Address string

// IsUser reports whether the address names a user rather than a channel.
func (a Address) IsUser() bool {
	return strings.HasPrefix(string(a), "@")
}

// EventKind tags the shape of an inbound event.
type EventKind int

const (
	// EventText is a free-form text message. Menu labels arrive as text
	// and are matched during idle dispatch.
	EventText EventKind = iota
	// EventCommand is an explicit command invocation ("!login", "!users").
	EventCommand
	// EventMedia is a message carrying an uploaded media reference.
	EventMedia
	// EventCancel is the universal cancel signal. It is checked before
	// any state-specific handling.
	EventCancel
)

// MediaKind tags the type of an opaque media reference.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaFile  MediaKind = "file"
)

// Media is an opaque reference to uploaded content. Ref is whatever the
// gateway can re-send (an mxc:// URI for Matrix); the core never
// interprets it.
type Media struct {
	Kind    MediaKind
	Ref     string
	Caption string
}

// Event is one inbound interaction from the messaging gateway.
type Event struct {
	Sender     Address
	SenderName string
	Kind       EventKind

	// Command and Args are set for EventCommand.
	Command string
	Args    string

	// Text is set for EventText and carries the media caption for
	// EventMedia.
	Text string

	// Media is set for EventMedia.
	Media *Media
}

// Content is a broadcast payload: plain text, or a media reference with
// its kind tag. Media == nil means text.
type Content struct {
	Text  string
	Media *Media
}

// ContentFromEvent extracts a broadcast payload from a text or media
// event. Returns false for event shapes that carry no content.
func ContentFromEvent(evt *Event) (Content, bool) {
	switch evt.Kind {
	case EventText:
		return Content{Text: evt.Text}, true
	case EventMedia:
		return Content{Media: evt.Media}, true
	default:
		return Content{}, false
	}
}
