package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/entities"
	"github.com/ariahq/aria/domain/repositories"
	"github.com/ariahq/aria/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Frames are small JSON
	// control messages, no binary payloads.
	maxMessageSize = 16 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and pushes assistant events to them.
// It implements usecase.Events so the assistant can announce appended messages
// and playback boundaries without knowing about websockets.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	assistant *usecase.Assistant
	validator *FrameValidator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(assistant *usecase.Assistant, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		assistant:  assistant,
		validator:  NewFrameValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.deviceID]; ok {
				delete(h.clients, client.deviceID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))
		}
	}
}

// broadcast sends a frame to every connected client. Slow clients whose
// send buffer is full are dropped rather than blocking the hub.
func (h *Hub) broadcast(frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("Dropping slow client", zap.String("deviceID", client.deviceID))
		}
	}
}

// MessageAppended pushes a newly appended chat message to all clients.
func (h *Hub) MessageAppended(msg entities.Message) {
	h.broadcast(NewMessageFrame(msg))
}

// SpeakingStarted announces the beginning of voice playback.
func (h *Hub) SpeakingStarted(text string) {
	h.broadcast(NewSpeakingFrame(FrameTypeSpeakingStart, text))
}

// SpeakingEnded announces the end of voice playback.
func (h *Hub) SpeakingEnded() {
	h.broadcast(NewSpeakingFrame(FrameTypeSpeakingEnd, ""))
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Device ID for this client
	deviceID string

	// Logger
	logger *zap.Logger
}

// HandleWebSocketWithAuth handles websocket requests with pre-authenticated device ID
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, deviceID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		deviceID: deviceID,
		logger:   logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
			continue
		}

		c.processFrame(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processFrame dispatches a validated inbound frame to the assistant.
func (c *Client) processFrame(raw []byte) {
	frame, err := c.hub.validator.ValidateFrame(raw)
	if err != nil {
		c.logger.Warn("Invalid frame",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.reply(NewErrorFrame("invalid_frame", err.Error()))
		return
	}

	switch f := frame.(type) {
	case *UserTextFrame:
		c.handleUserText(f)
	case *BaseFrame:
		switch f.Type {
		case FrameTypeListeningStart:
			c.handleListeningStart()
		case FrameTypeListeningEnd:
			c.handleListeningEnd()
		}
	case *PingFrame:
		c.reply(NewPongFrame(f.Data))
	}
}

// handleUserText submits a typed utterance. The resulting user and assistant
// messages reach this client through the hub broadcast, so the direct reply is
// just an acknowledgement.
func (c *Client) handleUserText(frame *UserTextFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := c.hub.assistant.SubmitUserText(ctx, frame.Text); err != nil {
		c.logger.Error("Failed to submit user text",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.reply(NewErrorFrame("submit_failed", "failed to process message"))
		return
	}

	c.reply(NewAckFrame(FrameTypeUserText))
}

// handleListeningStart begins a voice capture turn. Capture blocks until a
// transcript arrives or the client ends it, so it runs in its own goroutine.
func (c *Client) handleListeningStart() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		err := c.hub.assistant.StartListening(ctx)
		switch {
		case err == nil:
		case errors.Is(err, repositories.ErrSessionActive):
			c.reply(NewErrorFrame("session_active", "already listening or processing"))
		case errors.Is(err, repositories.ErrUnsupportedCapability):
			c.reply(NewErrorFrame("unsupported", "speech recognition is not available"))
		default:
			c.logger.Error("Listening failed",
				zap.String("deviceID", c.deviceID),
				zap.Error(err))
			c.reply(NewErrorFrame("listen_failed", "voice capture failed"))
		}
	}()

	c.reply(NewAckFrame(FrameTypeListeningStart))
}

func (c *Client) handleListeningEnd() {
	c.hub.assistant.StopListening()
	c.reply(NewAckFrame(FrameTypeListeningEnd))
}

// reply sends a frame to this client only.
func (c *Client) reply(frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("Failed to marshal reply frame", zap.Error(err))
		return
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn("Dropping reply to slow client", zap.String("deviceID", c.deviceID))
	}
}
