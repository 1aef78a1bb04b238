// Copyright 2024-2026 Aiku AI

// Package matrixgw adapts the Matrix client-server API to the narrow
// messaging interface the bot core consumes. It owns room resolution
// (user addresses become direct-message rooms, aliases are resolved to
// room IDs) and the sync loop that feeds inbound events to the engine.
package matrixgw

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-linkbot/pkg/bot"
)

// DMStore persists user to direct-message room mappings so restarts
// don't spawn duplicate DM rooms.
type DMStore interface {
	DMRoom(ctx context.Context, userID string) (string, error)
	PutDMRoom(ctx context.Context, userID, roomID string) error
}

// Handler consumes translated inbound events.
type Handler interface {
	Handle(ctx context.Context, evt *bot.Event)
}

// Gateway implements bot.Gateway on top of a mautrix client.
type Gateway struct {
	client  *mautrix.Client
	rooms   DMStore
	log     zerolog.Logger
	handler Handler
}

var _ bot.Gateway = (*Gateway)(nil)

// NewGateway connects a client. The handler is attached later with
// OnEvent because the engine needs the gateway first.
func NewGateway(homeserver, userID, accessToken string, rooms DMStore, log zerolog.Logger) (*Gateway, error) {
	client, err := mautrix.NewClient(homeserver, id.UserID(userID), accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}
	return &Gateway{
		client: client,
		rooms:  rooms,
		log:    log.With().Str("component", "matrixgw").Logger(),
	}, nil
}

// OnEvent sets the consumer for inbound events.
func (gw *Gateway) OnEvent(handler Handler) {
	gw.handler = handler
}

// resolveRoom maps an address to a concrete room ID. User addresses get
// a remembered DM room, or a fresh one is created and stored. Aliases
// are resolved through the homeserver.
func (gw *Gateway) resolveRoom(ctx context.Context, to bot.Address) (id.RoomID, error) {
	raw := string(to)
	switch {
	case to.IsUser():
		roomID, err := gw.rooms.DMRoom(ctx, raw)
		if err != nil {
			return "", fmt.Errorf("dm room lookup failed: %w", err)
		}
		if roomID != "" {
			return id.RoomID(roomID), nil
		}
		resp, err := gw.client.CreateRoom(ctx, &mautrix.ReqCreateRoom{
			Invite:   []id.UserID{id.UserID(raw)},
			IsDirect: true,
			Preset:   "trusted_private_chat",
		})
		if err != nil {
			return "", fmt.Errorf("%w: failed to create dm room: %v", bot.ErrTransport, err)
		}
		if err = gw.rooms.PutDMRoom(ctx, raw, resp.RoomID.String()); err != nil {
			gw.log.Warn().Err(err).Str("user_id", raw).Msg("Failed to store dm room")
		}
		return resp.RoomID, nil
	case len(raw) > 0 && raw[0] == '#':
		resp, err := gw.client.ResolveAlias(ctx, id.RoomAlias(raw))
		if err != nil {
			return "", fmt.Errorf("%w: failed to resolve alias %s: %v", bot.ErrTransport, raw, err)
		}
		return resp.RoomID, nil
	default:
		return id.RoomID(raw), nil
	}
}

func (gw *Gateway) SendText(ctx context.Context, to bot.Address, text string) error {
	roomID, err := gw.resolveRoom(ctx, to)
	if err != nil {
		return err
	}
	if _, err = gw.client.SendText(ctx, roomID, text); err != nil {
		return fmt.Errorf("%w: failed to send to %s: %v", bot.ErrTransport, to, err)
	}
	return nil
}

func (gw *Gateway) SendMedia(ctx context.Context, to bot.Address, media bot.Media) error {
	roomID, err := gw.resolveRoom(ctx, to)
	if err != nil {
		return err
	}
	content := &event.MessageEventContent{
		MsgType: msgTypeFor(media.Kind),
		Body:    media.Caption,
		URL:     id.ContentURIString(media.Ref),
	}
	if content.Body == "" {
		content.Body = string(media.Kind)
	}
	if _, err = gw.client.SendMessageEvent(ctx, roomID, event.EventMessage, content); err != nil {
		return fmt.Errorf("%w: failed to send media to %s: %v", bot.ErrTransport, to, err)
	}
	return nil
}

// Probe verifies write access to a channel by sending a marker message
// and immediately retracting it. A failure of either half means the
// channel is not usable.
func (gw *Gateway) Probe(ctx context.Context, channel bot.Address) error {
	roomID, err := gw.resolveRoom(ctx, channel)
	if err != nil {
		return err
	}
	resp, err := gw.client.SendText(ctx, roomID, "✅")
	if err != nil {
		return fmt.Errorf("%w: cannot post to %s: %v", bot.ErrTransport, channel, err)
	}
	if _, err = gw.client.RedactEvent(ctx, roomID, resp.EventID); err != nil {
		return fmt.Errorf("%w: cannot redact in %s: %v", bot.ErrTransport, channel, err)
	}
	return nil
}

// RelayCopy re-sends the content of an inbound event to the target,
// preserving text or media shape.
func (gw *Gateway) RelayCopy(ctx context.Context, to bot.Address, evt *bot.Event) error {
	if evt.Media != nil {
		return gw.SendMedia(ctx, to, *evt.Media)
	}
	return gw.SendText(ctx, to, evt.Text)
}

func msgTypeFor(kind bot.MediaKind) event.MessageType {
	switch kind {
	case bot.MediaImage:
		return event.MsgImage
	case bot.MediaVideo:
		return event.MsgVideo
	case bot.MediaAudio:
		return event.MsgAudio
	default:
		return event.MsgFile
	}
}
