package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit    = 1 << 20
	readDeadline = 60 * time.Second
	pingEvery    = 25 * time.Second
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	name string
	id   string
	send chan []byte
	log  *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, id, name string, log *zap.Logger) *client {
	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	return &client{
		hub:  hub,
		conn: conn,
		name: name,
		id:   id,
		send: make(chan []byte, 16),
		log:  log.With(zap.String("conn", id)),
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Info("read closed", zap.Error(err))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var msg InMsg
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendMsg(OutMsg{T: MsgError, P: ErrPayload{Code: "bad_envelope", Msg: "invalid payload"}})
			continue
		}
		if msg.T == "" {
			continue
		}
		c.hub.requests <- request{origin: c, msg: msg}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.log.Info("write closed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// sendMsg queues an envelope, dropping it when the client is slow.
func (c *client) sendMsg(msg OutMsg) {
	raw, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("encode outbound", zap.Error(err))
		return
	}
	select {
	case c.send <- raw:
	default:
		c.log.Warn("outbound queue full, dropping message", zap.String("type", msg.T))
	}
}
