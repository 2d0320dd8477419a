package ws

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

const (
	EventSubscribe    = "subscribe_search"
	EventUnsubscribe  = "unsubscribe_search"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventPriceUpdate  = "price_update"
	EventError        = "error"
)

type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// guarded by hub.mu
	channels map[string]struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:       uuid.NewString(),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		channels: make(map[string]struct{}),
	}
}

type controlMessage struct {
	Event    string `json:"event"`
	SearchID string `json:"searchId"`
}

type controlReply struct {
	Event    string `json:"event"`
	SearchID string `json:"searchId,omitempty"`
	Message  string `json:"message"`
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug().Err(err).Str("client_id", c.id).Msg("[WS] Read error")
			}
			return
		}
		c.handleMessage(raw)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(controlReply{Event: EventError, Message: "invalid message"})
		return
	}
	searchID := strings.TrimSpace(msg.SearchID)

	switch msg.Event {
	case EventSubscribe:
		if searchID == "" || !c.hub.Subscribe(searchID, c) {
			c.reply(controlReply{Event: EventError, SearchID: searchID, Message: "invalid searchId"})
			return
		}
		c.reply(controlReply{Event: EventSubscribed, SearchID: searchID, Message: "Subscribed to search " + searchID})

	case EventUnsubscribe:
		if !c.hub.Unsubscribe(searchID, c) {
			c.reply(controlReply{Event: EventError, SearchID: searchID, Message: "not found"})
			return
		}
		c.reply(controlReply{Event: EventUnsubscribed, SearchID: searchID, Message: "Unsubscribed from search " + searchID})

	default:
		c.reply(controlReply{Event: EventError, Message: "unknown event"})
	}
}

// reply queues a control message without blocking the read loop. It is a
// no-op once the client has been unregistered.
func (c *Client) reply(r controlReply) {
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}
