// Copyright 2024-2026 Aiku AI

package matrixgw

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"

	"github.com/aiku/matrix-linkbot/pkg/bot"
)

// Run starts the sync loop and blocks until the context is cancelled or
// the sync fails terminally. Events delivered before startup are dropped
// so a restart doesn't replay the backlog.
func (gw *Gateway) Run(ctx context.Context) error {
	startedAt := time.Now().UnixMilli()

	syncer := gw.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, func(ctx context.Context, evt *event.Event) {
		if evt.Sender == gw.client.UserID || evt.Timestamp < startedAt {
			return
		}
		gw.handleMessage(ctx, evt)
	})
	syncer.OnEventType(event.StateMember, func(ctx context.Context, evt *event.Event) {
		gw.handleMember(ctx, evt)
	})

	gw.log.Info().Str("user_id", gw.client.UserID.String()).Msg("Starting sync")
	if err := gw.client.SyncWithContext(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// handleMember accepts room invites so users can open a DM with the bot
// themselves. Direct invites are remembered as the inviter's DM room.
func (gw *Gateway) handleMember(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != gw.client.UserID.String() {
		return
	}
	member := evt.Content.AsMember()
	if member.Membership != event.MembershipInvite {
		return
	}
	if _, err := gw.client.JoinRoomByID(ctx, evt.RoomID); err != nil {
		gw.log.Warn().Err(err).Str("room_id", evt.RoomID.String()).Msg("Failed to join on invite")
		return
	}
	if member.IsDirect {
		if err := gw.rooms.PutDMRoom(ctx, evt.Sender.String(), evt.RoomID.String()); err != nil {
			gw.log.Warn().Err(err).Str("user_id", evt.Sender.String()).Msg("Failed to store dm room")
		}
	}
	gw.log.Debug().Str("room_id", evt.RoomID.String()).Msg("Joined room on invite")
}

func (gw *Gateway) handleMessage(ctx context.Context, evt *event.Event) {
	if gw.handler == nil {
		return
	}
	msg := evt.Content.AsMessage()
	if msg == nil {
		return
	}

	// Only direct conversations drive the bot. A message in any other
	// room (the staff channel included) is left alone.
	sender := evt.Sender.String()
	known, err := gw.rooms.DMRoom(ctx, sender)
	if err != nil {
		gw.log.Warn().Err(err).Str("user_id", sender).Msg("DM room lookup failed")
		return
	}
	switch known {
	case evt.RoomID.String():
	case "":
		// First contact: remember the room the user wrote from.
		if err = gw.rooms.PutDMRoom(ctx, sender, evt.RoomID.String()); err != nil {
			gw.log.Warn().Err(err).Str("user_id", sender).Msg("Failed to store dm room")
		}
	default:
		return
	}

	botEvt := translate(evt, msg)
	if botEvt == nil {
		return
	}
	gw.handler.Handle(ctx, botEvt)
}

// translate converts a Matrix message into a core event. Returns nil for
// message types the bot has no use for.
func translate(evt *event.Event, msg *event.MessageEventContent) *bot.Event {
	out := &bot.Event{
		Sender:     bot.Address(evt.Sender),
		SenderName: evt.Sender.Localpart(),
	}

	switch msg.MsgType {
	case event.MsgText, event.MsgNotice:
		text := strings.TrimSpace(msg.Body)
		if command, args, ok := parseCommand(text); ok {
			if command == "cancel" {
				out.Kind = bot.EventCancel
				return out
			}
			out.Kind = bot.EventCommand
			out.Command = command
			out.Args = args
			return out
		}
		out.Kind = bot.EventText
		out.Text = text
		return out
	case event.MsgImage, event.MsgVideo, event.MsgAudio, event.MsgFile:
		out.Kind = bot.EventMedia
		out.Text = msg.Body
		out.Media = &bot.Media{
			Kind:    mediaKindFor(msg.MsgType),
			Ref:     string(msg.URL),
			Caption: msg.Body,
		}
		return out
	default:
		return nil
	}
}

// parseCommand splits "!login abc" into ("login", "abc"). Only plain
// alphabetic words after the bang count: room IDs like "!abc:server"
// must pass through as text so channel-binding prompts still work.
func parseCommand(text string) (command, args string, ok bool) {
	if !strings.HasPrefix(text, "!") || len(text) < 2 {
		return "", "", false
	}
	command, args, _ = strings.Cut(text[1:], " ")
	command = strings.ToLower(command)
	for _, r := range command {
		if r < 'a' || r > 'z' {
			return "", "", false
		}
	}
	return command, strings.TrimSpace(args), true
}

func mediaKindFor(msgType event.MessageType) bot.MediaKind {
	switch msgType {
	case event.MsgImage:
		return bot.MediaImage
	case event.MsgVideo:
		return bot.MediaVideo
	case event.MsgAudio:
		return bot.MediaAudio
	default:
		return bot.MediaFile
	}
}
