package collab

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one websocket connection to a document room.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	UserID      string
	DisplayName string
	DocID       string
	ClientID    string

	seq int64 // last sequence number sent; hub loop only
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, docID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		DocID:       docID,
		ClientID:    clientID,
	}
}

// ReadPump decodes incoming messages and hands them to the hub loop.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		msg, err := c.read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.hub.logger.Debug("read error", "error", err, "user", c.UserID)
			}
			return
		}
		if msg == nil {
			continue
		}
		if !c.hub.Submit(ctx, c, msg) {
			return
		}
	}
}

// read returns the next message, or nil for a frame that is not valid JSON.
// Identity fields always come from the connection, never from the client.
func (c *Client) read(ctx context.Context) (*Message, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.logger.Warn("invalid message", "error", err, "user", c.UserID)
		return nil, nil
	}
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.DocID = c.DocID
	return &msg, nil
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send stamps msg with the client's next sequence number and queues it
// without blocking. It is only called from the hub loop. A full buffer drops
// frames, which the next frame supersedes; any other message means the client
// has fallen behind the document, so it is disconnected.
func (c *Client) Send(msg *Message) {
	out := *msg
	c.seq++
	out.Seq = c.seq
	data, err := json.Marshal(&out)
	if err != nil {
		c.hub.logger.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
		return
	default:
	}
	c.hub.metrics.Dropped.WithLabelValues(msg.Type).Inc()
	if msg.Type == TypeFrame {
		return
	}
	c.hub.logger.Warn("client too slow, disconnecting", "user", c.UserID, "doc", c.DocID, "type", msg.Type)
	if c.conn != nil {
		c.conn.Close(websocket.StatusPolicyViolation, "too slow")
	}
}
