package websocket

import (
	"context"
	"encoding/json"
	"time"

	"memento-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Inbound frame types.
const (
	FrameChatMessage = "chat_message"
	FrameCISTAnswer  = "cist_answer"
	FramePing        = "ping"
)

// Outbound frame types.
const (
	FrameTurn  = "turn"
	FramePong  = "pong"
	FrameError = "error"
)

type InboundFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type OutboundFrame struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// TurnSender runs one conversational turn. Backed by the conversation
// service; declared here so the transport does not import it.
type TurnSender interface {
	SendTurn(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SendTurnRequest) (*dto.TurnResponse, error)
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	UserID    uuid.UUID
	SessionID uuid.UUID

	// Turns processes chat and answer frames.
	Turns TurnSender

	// Buffered channel of outbound frames.
	Send chan []byte
}

// readPump decodes inbound frames and drives turns. A malformed frame gets
// an error frame back and does not advance session state.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			break
		}

		var frame InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.enqueue(OutboundFrame{Type: FrameError, Error: "malformed frame"})
			continue
		}

		switch frame.Type {
		case FramePing:
			c.enqueue(OutboundFrame{Type: FramePong})

		case FrameChatMessage, FrameCISTAnswer:
			// Both land in the same turn path; the session's pending
			// screening state decides whether the text is scored.
			response, err := c.Turns.SendTurn(context.Background(), c.UserID, c.SessionID, &dto.SendTurnRequest{
				Message: frame.Message,
			})
			if err != nil {
				c.enqueue(OutboundFrame{Type: FrameError, Error: err.Error()})
				continue
			}
			c.Hub.Publish(c.SessionID, OutboundFrame{Type: FrameTurn, Data: response})

		default:
			c.enqueue(OutboundFrame{Type: FrameError, Error: "unknown frame type: " + frame.Type})
		}
	}
}

// enqueue sends a frame to this connection only.
func (c *Client) enqueue(frame OutboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// writePump flushes outbound frames and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any frames queued behind this one.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
