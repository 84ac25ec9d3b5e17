package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/protocol"
)

const writeWait = 5 * time.Second

// ServerError is an error frame received while waiting for something else.
type ServerError struct {
	Kind    protocol.ErrorKind
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Kind, e.Message)
}

// Bot is one scripted player connection.
type Bot struct {
	Name     string
	PlayerID string
	RoomID   string
	Team     protocol.Team

	conn   *websocket.Conn
	frames chan protocol.Frame
	done   chan struct{}
	err    error
}

// Dial connects a bot to the relay's WebSocket endpoint.
func Dial(ctx context.Context, url, name string) (*Bot, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	b := &Bot{
		Name:   name,
		conn:   conn,
		frames: make(chan protocol.Frame, 256),
		done:   make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *Bot) readLoop() {
	defer close(b.done)
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.err = err
			return
		}
		f, err := protocol.ParseFrame(data)
		if err != nil {
			log.Warn().Err(err).Str("bot", b.Name).Msg("Unparseable frame")
			continue
		}
		select {
		case b.frames <- f:
		case <-time.After(writeWait):
			b.err = errors.New("frame buffer full")
			return
		}
	}
}

// Send writes one client message.
func (b *Bot) Send(m protocol.Message) error {
	data, err := protocol.EncodeMessage(m)
	if err != nil {
		return err
	}
	b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%s send %s: %w", b.Name, m.MessageType(), err)
	}
	log.Debug().Str("bot", b.Name).Str("type", m.MessageType()).Msg("Sent")
	return nil
}

// Expect waits for the next frame whose type is one of types. Other frames
// are skipped. An error frame ends the wait unless TypeError was asked for.
func (b *Bot) Expect(ctx context.Context, types ...string) (protocol.Frame, error) {
	for {
		select {
		case f := <-b.frames:
			if slices.Contains(types, f.Type) {
				return f, nil
			}
			if f.Type == protocol.TypeError {
				return f, &ServerError{Kind: f.Kind, Message: f.Message}
			}
			log.Debug().Str("bot", b.Name).Str("type", f.Type).Msg("Skipped")
		case <-b.done:
			// drain what arrived before the connection dropped
			select {
			case f := <-b.frames:
				if slices.Contains(types, f.Type) {
					return f, nil
				}
				continue
			default:
			}
			return protocol.Frame{}, fmt.Errorf("%s waiting for %v: connection closed: %v", b.Name, types, b.err)
		case <-ctx.Done():
			return protocol.Frame{}, fmt.Errorf("%s waiting for %v: %w", b.Name, types, ctx.Err())
		}
	}
}

// Close says goodbye and drops the connection.
func (b *Bot) Close() error {
	b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return b.conn.Close()
}
